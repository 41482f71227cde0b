package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/passfold/passfold-server/internal/model"
)

// KeySize is the required symmetric key length (AES-256).
const KeySize = 32

// Delimiter separates the hex-encoded IV from the hex-encoded ciphertext
// in a stored value. Its presence is also the heuristic the Safe variants
// use to classify a value as already encrypted, so a plaintext secret
// containing the delimiter is misclassified and passed through unchanged.
const Delimiter = ":"

// Codec encrypts and decrypts secrets with AES-256-CBC using a
// process-wide key and a random IV per call. The stored form is
// "hex(iv):hex(ciphertext)", self-contained for decryption given only the
// key.
type Codec struct {
	block cipher.Block
}

// NewCodec builds a Codec from a raw key. A key of the wrong length is a
// configuration error; callers treat it as fatal at startup.
func NewCodec(key string) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	return &Codec{block: block}, nil
}

// Encrypt encrypts plaintext and returns the delimited stored form.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pad([]byte(plaintext))
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + Delimiter + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Malformed or truncated input fails with
// model.ErrDecode.
func (c *Codec) Decrypt(value string) (string, error) {
	ivHex, ciphertextHex, ok := strings.Cut(value, Delimiter)
	if !ok {
		return "", fmt.Errorf("%w: missing delimiter", model.ErrDecode)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: invalid iv encoding", model.ErrDecode)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", model.ErrDecode, aes.BlockSize, len(iv))
	}

	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext encoding", model.ErrDecode)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a positive multiple of the block size", model.ErrDecode, len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpad(plaintext)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// SafeEncrypt encrypts a value unless it already looks encrypted.
func (c *Codec) SafeEncrypt(value string) (string, error) {
	if strings.Contains(value, Delimiter) {
		return value, nil
	}
	return c.Encrypt(value)
}

// SafeDecrypt decrypts a value unless it looks like plaintext.
func (c *Codec) SafeDecrypt(value string) (string, error) {
	if !strings.Contains(value, Delimiter) {
		return value, nil
	}
	return c.Decrypt(value)
}

// pad applies PKCS#7 padding up to the AES block size.
func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad strips PKCS#7 padding.
func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", model.ErrDecode)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", model.ErrDecode)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", model.ErrDecode)
		}
	}
	return data[:len(data)-n], nil
}
