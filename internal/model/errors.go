package model

import "errors"

// Sentinel errors shared across services and repositories. Handlers map
// them to HTTP statuses in one place.
var (
	// ErrNotFound indicates the referenced folder, credential or account
	// does not exist for the given owner.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParent indicates a folder create/move referenced a parent
	// that does not exist or belongs to a different owner.
	ErrInvalidParent = errors.New("invalid parent folder")

	// ErrCycleDetected indicates a folder move that would make the folder
	// its own ancestor.
	ErrCycleDetected = errors.New("folder move would create a cycle")

	// ErrDuplicateUsername indicates the requested username is taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials indicates a failed authentication attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProtectedAccount indicates an attempt to delete the bootstrap
	// admin account.
	ErrProtectedAccount = errors.New("cannot delete admin account")

	// ErrDecode indicates a stored ciphertext could not be decoded.
	ErrDecode = errors.New("malformed ciphertext")

	// ErrValidation indicates a request is missing a required field.
	ErrValidation = errors.New("invalid request data")
)
