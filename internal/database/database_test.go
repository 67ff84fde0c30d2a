package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taskorbit/taskorbit/internal/config"
	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/database/tasks"
	"github.com/taskorbit/taskorbit/internal/database/users"
)

func sqliteConfig(t *testing.T) config.Database {
	t.Helper()
	return config.Database{
		Kind:           config.KindSQLite,
		Host:           t.TempDir(),
		Name:           "test.db",
		Prefix:         "to_",
		MaxOpenConns:   config.DefaultMaxOpenConns,
		MaxIdleConns:   config.DefaultMaxIdleConns,
		ConnectTimeout: 5 * time.Second,
	}
}

func openTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(sqliteConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableNames(t *testing.T, db *database.Database) []string {
	t.Helper()
	var names []string
	err := db.DB.Raw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
	).Scan(&names).Error
	require.NoError(t, err)
	return names
}

func TestNewDatabase_CreatesParentDirectory(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Host = filepath.Join(cfg.Host, "nested", "data")

	db, err := database.NewDatabase(cfg)

	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, config.KindSQLite, db.Kind())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewDatabase_UnsupportedKind(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Kind = "oracle"

	_, err := database.NewDatabase(cfg)
	assert.Error(t, err)
}

func TestNewDatabase_UnreachableServer(t *testing.T) {
	_, err := database.NewDatabase(config.Database{
		Kind:           config.KindPostgreSQL,
		Host:           "127.0.0.1",
		Port:           1, // nothing listens here
		User:           "orbit",
		Password:       "secret",
		Name:           "taskorbit",
		Schema:         "taskorbit",
		MaxOpenConns:   config.DefaultMaxOpenConns,
		MaxIdleConns:   config.DefaultMaxIdleConns,
		ConnectTimeout: 2 * time.Second,
	})

	var cerr *database.ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, config.KindPostgreSQL, cerr.Kind)
}

func TestEnsureSchema_PrefixedTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.EnsureSchema())

	names := tableNames(t, db)
	assert.Contains(t, names, "to_user")
	assert.Contains(t, names, "to_task")
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.EnsureSchema())
	before := tableNames(t, db)

	// Re-running setup must neither fail nor create duplicates.
	require.NoError(t, db.EnsureSchema())
	assert.Equal(t, before, tableNames(t, db))
}

func TestWithUnitOfWork_CommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.EnsureSchema())

	err := db.WithUnitOfWork(context.Background(), "users.create", func(tx *gorm.DB) error {
		_, err := users.NewRepository(tx).Create("alice", "hash")
		return err
	})
	require.NoError(t, err)

	_, err = users.NewRepository(db.DB).GetByName("alice")
	assert.NoError(t, err)
}

func TestWithUnitOfWork_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.EnsureSchema())

	boom := errors.New("boom")
	err := db.WithUnitOfWork(context.Background(), "users.create", func(tx *gorm.DB) error {
		if _, err := users.NewRepository(tx).Create("alice", "hash"); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)

	// Nothing from the failed unit of work is visible.
	_, err = users.NewRepository(db.DB).GetByName("alice")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestWithUnitOfWork_SentinelsPassThrough(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.EnsureSchema())

	err := db.WithUnitOfWork(context.Background(), "tasks.get", func(tx *gorm.DB) error {
		return database.ErrNotFound
	})
	assert.ErrorIs(t, err, database.ErrNotFound)

	err = db.WithUnitOfWork(context.Background(), "tasks.create", func(tx *gorm.DB) error {
		return database.ErrInvalidInput
	})
	assert.ErrorIs(t, err, database.ErrInvalidInput)

	err = db.WithUnitOfWork(context.Background(), "users.create", func(tx *gorm.DB) error {
		return database.ErrAlreadyExists
	})
	assert.ErrorIs(t, err, database.ErrAlreadyExists)
}

func TestWithUnitOfWork_ClassifiesStorageErrors(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.EnsureSchema())

	err := db.WithUnitOfWork(context.Background(), "tasks.list", func(tx *gorm.DB) error {
		return tx.Exec("SELECT * FROM missing_table").Error
	})

	var serr *database.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "tasks.list", serr.Op)
	assert.Equal(t, config.KindSQLite, serr.Kind)
}

func TestSeed_ScenarioAndIdempotence(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Seed(4)) // minimal bcrypt cost keeps the test fast
	require.NoError(t, db.Seed(4))

	userRepo := users.NewRepository(db.DB)
	admin, err := userRepo.GetByName(database.SeedUserName)
	require.NoError(t, err)
	assert.True(t, admin.Active)

	taskRepo := tasks.NewRepository(db.DB)
	active, err := taskRepo.ListForOwner(admin.ID, tasks.StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 2, "re-seeding must not duplicate sample tasks")

	// Search is case-insensitive against the seeded pipeline task.
	found, err := taskRepo.Search(admin.ID, "PIPELINE")
	require.NoError(t, err)
	require.Len(t, found, 1)

	// Toggling one task shrinks the active list to one.
	_, err = taskRepo.Toggle(active[0].ID, admin.ID)
	require.NoError(t, err)
	remaining, err := taskRepo.ListForOwner(admin.ID, tasks.StatusActive)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
