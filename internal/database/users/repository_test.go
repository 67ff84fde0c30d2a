package users

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorbit/taskorbit/internal/config"
	"github.com/taskorbit/taskorbit/internal/database"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewDatabase(config.Database{
		Kind:           config.KindSQLite,
		Host:           t.TempDir(),
		Name:           "test_users.db",
		Prefix:         "to_",
		MaxOpenConns:   config.DefaultMaxOpenConns,
		MaxIdleConns:   config.DefaultMaxIdleConns,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema())
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB)
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.Create("testuser", "hashed-secret")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "testuser", user.Name)
	assert.True(t, user.Active)
	assert.Nil(t, user.LastLoginAt)
}

func TestRepository_Create_EmptyName(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create("  ", "hashed-secret")

	assert.ErrorIs(t, err, database.ErrInvalidInput)
}

func TestRepository_Create_DuplicateName(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create("testuser", "hashed-secret")
	require.NoError(t, err)

	// The unique index on name surfaces as the sentinel so callers can map
	// it to a conflict response instead of an internal error.
	_, err = repo.Create("testuser", "other-hash")
	assert.ErrorIs(t, err, database.ErrAlreadyExists)
}

func TestRepository_GetByName(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.Create("testuser", "hashed-secret")
	require.NoError(t, err)

	user, err := repo.GetByName("testuser")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetByName("nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Exists(t *testing.T) {
	repo := setupTestDB(t)

	exists, err := repo.Exists("testuser")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Create("testuser", "hashed-secret")
	require.NoError(t, err)

	exists, err = repo.Exists("testuser")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_Deactivate(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.Create("testuser", "hashed-secret")
	require.NoError(t, err)

	require.NoError(t, repo.Deactivate(user.ID))

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	err = repo.Deactivate(uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_TouchLastLogin(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.Create("testuser", "hashed-secret")
	require.NoError(t, err)

	require.NoError(t, repo.TouchLastLogin(user.ID))

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)
}
