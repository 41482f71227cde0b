//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/passfold/passfold-server/internal/model"
	repo "github.com/passfold/passfold-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "passfold_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/passfold_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	accounts := repo.NewAccountRepository(conn)
	folders := repo.NewFolderRepository(conn)
	credentials := repo.NewCredentialRepository(conn)

	t.Run("account_repository", func(t *testing.T) {
		created, err := accounts.Create(ctx, model.Account{
			Username: "alice",
			Secret:   "enc:secret",
			Role:     model.RoleUser,
		})
		require.NoError(t, err)
		require.Equal(t, "alice", created.Username)

		got, err := accounts.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "enc:secret", got.Secret)

		_, err = accounts.GetByUsername(ctx, "ghost")
		require.ErrorIs(t, err, model.ErrNotFound)

		_, err = accounts.Create(ctx, model.Account{Username: "alice", Secret: "x", Role: model.RoleUser})
		require.ErrorIs(t, err, model.ErrDuplicateUsername)

		require.NoError(t, accounts.UpdateSecret(ctx, "alice", "enc:other"))
		got, err = accounts.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "enc:other", got.Secret)

		list, err := accounts.List(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(list), 1)
	})

	t.Run("folder_repository", func(t *testing.T) {
		root, err := folders.Create(ctx, model.Folder{ID: uuid.New(), OwnerID: "alice", Name: "Work"})
		require.NoError(t, err)

		child, err := folders.Create(ctx, model.Folder{ID: uuid.New(), OwnerID: "alice", Name: "Mail", ParentID: &root.ID})
		require.NoError(t, err)

		got, err := folders.GetByID(ctx, "alice", child.ID)
		require.NoError(t, err)
		require.Equal(t, "Mail", got.Name)
		require.NotNil(t, got.ParentID)
		require.Equal(t, root.ID, *got.ParentID)

		// folders are namespaced per owner
		_, err = folders.GetByID(ctx, "bob", child.ID)
		require.ErrorIs(t, err, model.ErrNotFound)

		renamed, err := folders.Rename(ctx, "alice", child.ID, "Email")
		require.NoError(t, err)
		require.Equal(t, "Email", renamed.Name)

		moved, err := folders.Reparent(ctx, "alice", child.ID, nil)
		require.NoError(t, err)
		require.Nil(t, moved.ParentID)

		all, err := folders.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("credential_repository", func(t *testing.T) {
		folder, err := folders.Create(ctx, model.Folder{ID: uuid.New(), OwnerID: "alice", Name: "Banking"})
		require.NoError(t, err)

		first := model.Credential{ID: uuid.New(), OwnerID: "alice", Title: "bank", Username: "alice", Secret: "aa:bb", FolderID: &folder.ID}
		second := model.Credential{ID: uuid.New(), OwnerID: "alice", Title: "mail", Secret: "cc:dd"}

		require.NoError(t, credentials.ReplaceAll(ctx, "alice", []model.Credential{first, second}))

		list, err := credentials.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 2)

		require.NoError(t, credentials.MoveToFolder(ctx, "alice", second.ID, &folder.ID))
		list, err = credentials.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		for _, credential := range list {
			require.NotNil(t, credential.FolderID)
			assert.Equal(t, folder.ID, *credential.FolderID)
		}

		// full replace drops rows not present in the new set
		require.NoError(t, credentials.ReplaceAll(ctx, "alice", []model.Credential{first}))
		list, err = credentials.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, first.ID, list[0].ID)
	})

	t.Run("folder_cascade_delete", func(t *testing.T) {
		parent, err := folders.Create(ctx, model.Folder{ID: uuid.New(), OwnerID: "carol", Name: "Top"})
		require.NoError(t, err)
		child, err := folders.Create(ctx, model.Folder{ID: uuid.New(), OwnerID: "carol", Name: "Nested", ParentID: &parent.ID})
		require.NoError(t, err)

		inside := model.Credential{ID: uuid.New(), OwnerID: "carol", Title: "inside", Secret: "ee:ff", FolderID: &child.ID}
		outside := model.Credential{ID: uuid.New(), OwnerID: "carol", Title: "outside", Secret: "11:22"}
		require.NoError(t, credentials.ReplaceAll(ctx, "carol", []model.Credential{inside, outside}))

		require.NoError(t, folders.DeleteCascade(ctx, "carol", []uuid.UUID{parent.ID, child.ID}))

		remaining, err := folders.ListByOwner(ctx, "carol")
		require.NoError(t, err)
		require.Empty(t, remaining)

		list, err := credentials.ListByOwner(ctx, "carol")
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "outside", list[0].Title)
	})

	t.Run("account_rename_remaps_vault", func(t *testing.T) {
		_, err := accounts.Create(ctx, model.Account{Username: "dave", Secret: "enc:dave", Role: model.RoleUser})
		require.NoError(t, err)

		folder, err := folders.Create(ctx, model.Folder{ID: uuid.New(), OwnerID: "dave", Name: "Stuff"})
		require.NoError(t, err)
		credential := model.Credential{ID: uuid.New(), OwnerID: "dave", Title: "thing", Secret: "33:44", FolderID: &folder.ID}
		require.NoError(t, credentials.ReplaceAll(ctx, "dave", []model.Credential{credential}))

		updated, err := accounts.UpdateCredentials(ctx, "dave", "david", "enc:new")
		require.NoError(t, err)
		require.Equal(t, "david", updated.Username)

		_, err = accounts.GetByUsername(ctx, "dave")
		require.ErrorIs(t, err, model.ErrNotFound)

		movedFolders, err := folders.ListByOwner(ctx, "david")
		require.NoError(t, err)
		require.Len(t, movedFolders, 1)

		movedCredentials, err := credentials.ListByOwner(ctx, "david")
		require.NoError(t, err)
		require.Len(t, movedCredentials, 1)

		orphaned, err := credentials.ListByOwner(ctx, "dave")
		require.NoError(t, err)
		require.Empty(t, orphaned)
	})

	t.Run("account_delete_removes_vault", func(t *testing.T) {
		_, err := accounts.Create(ctx, model.Account{Username: "erin", Secret: "enc:erin", Role: model.RoleUser})
		require.NoError(t, err)

		folder, err := folders.Create(ctx, model.Folder{ID: uuid.New(), OwnerID: "erin", Name: "Private"})
		require.NoError(t, err)
		credential := model.Credential{ID: uuid.New(), OwnerID: "erin", Title: "secret", Secret: "55:66", FolderID: &folder.ID}
		require.NoError(t, credentials.ReplaceAll(ctx, "erin", []model.Credential{credential}))

		require.NoError(t, accounts.Delete(ctx, "erin"))

		_, err = accounts.GetByUsername(ctx, "erin")
		require.ErrorIs(t, err, model.ErrNotFound)

		remainingFolders, err := folders.ListByOwner(ctx, "erin")
		require.NoError(t, err)
		require.Empty(t, remainingFolders)

		remainingCredentials, err := credentials.ListByOwner(ctx, "erin")
		require.NoError(t, err)
		require.Empty(t, remainingCredentials)

		require.ErrorIs(t, accounts.Delete(ctx, "erin"), model.ErrNotFound)
	})
}
