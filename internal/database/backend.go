package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskorbit/taskorbit/internal/config"
)

// backend is the per-engine variant behind the factory. Exactly one
// implementation is selected at startup from the configured kind; call
// sites never switch on kind strings themselves.
type backend interface {
	kind() config.DatabaseKind

	// dialector builds the GORM dialector for the configured target. The
	// schema is never embedded in the connection string; namespace binding
	// is a separate post-connect step.
	dialector(cfg config.Database) (gorm.Dialector, error)

	// tablePrefix returns the prefix the naming strategy applies to every
	// table name: "<schema>." for server backends, the configured plain
	// prefix for SQLite.
	tablePrefix(cfg config.Database) string

	// ensureNamespace idempotently creates the schema if the role is
	// allowed to. A pre-provisioned schema must be accepted as-is.
	ensureNamespace(db *gorm.DB, cfg config.Database) error

	// bindNamespace sets the session's working schema so unqualified
	// references in raw SQL resolve to it. Generated statements are
	// schema-qualified by the naming strategy and do not depend on which
	// pooled connection serves them.
	bindNamespace(db *gorm.DB, cfg config.Database) error
}

func backendFor(kind config.DatabaseKind) (backend, error) {
	switch kind {
	case config.KindSQLite:
		return sqliteBackend{}, nil
	case config.KindPostgreSQL:
		return postgresBackend{}, nil
	case config.KindMySQL:
		return mysqlBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported database kind %q", kind)
	}
}

type sqliteBackend struct{}

func (sqliteBackend) kind() config.DatabaseKind { return config.KindSQLite }

func (sqliteBackend) dialector(cfg config.Database) (gorm.Dialector, error) {
	// The parent directory must exist; the file itself is created lazily
	// by the driver on first connection.
	if err := os.MkdirAll(cfg.Host, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", cfg.Host, err)
	}
	path := filepath.Join(cfg.Host, cfg.Name)
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", path, cfg.ConnectTimeout.Milliseconds())
	return sqlite.Open(dsn), nil
}

func (sqliteBackend) tablePrefix(cfg config.Database) string {
	return cfg.Prefix
}

func (sqliteBackend) ensureNamespace(*gorm.DB, config.Database) error {
	// No schema concept; isolation comes from the table prefix.
	return nil
}

func (sqliteBackend) bindNamespace(*gorm.DB, config.Database) error {
	return nil
}

type postgresBackend struct{}

func (postgresBackend) kind() config.DatabaseKind { return config.KindPostgreSQL }

func (postgresBackend) dialector(cfg config.Database) (gorm.Dialector, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=prefer connect_timeout=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
		int(cfg.ConnectTimeout.Seconds()),
	)
	return postgres.Open(dsn), nil
}

func (postgresBackend) tablePrefix(cfg config.Database) string {
	return cfg.Schema + "."
}

func (postgresBackend) ensureNamespace(db *gorm.DB, cfg config.Database) error {
	// In production the schema is usually pre-provisioned by an operator
	// and the application role may not hold CREATE. Only attempt creation
	// when the schema is actually missing.
	var count int64
	err := db.Raw(
		"SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?",
		cfg.Schema,
	).Scan(&count).Error
	if err != nil {
		return fmt.Errorf("check schema %s: %w", cfg.Schema, err)
	}
	if count > 0 {
		return nil
	}
	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", cfg.Schema)).Error; err != nil {
		return fmt.Errorf("create schema %s: %w", cfg.Schema, err)
	}
	return nil
}

func (postgresBackend) bindNamespace(db *gorm.DB, cfg config.Database) error {
	return db.Exec(fmt.Sprintf("SET search_path TO %q", cfg.Schema)).Error
}

type mysqlBackend struct{}

func (mysqlBackend) kind() config.DatabaseKind { return config.KindMySQL }

func (mysqlBackend) dialector(cfg config.Database) (gorm.Dialector, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=%ds&readTimeout=30s&writeTimeout=30s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
		int(cfg.ConnectTimeout.Seconds()),
	)
	return mysql.Open(dsn), nil
}

func (mysqlBackend) tablePrefix(cfg config.Database) string {
	// MySQL schemas are databases; qualified names use the same dot syntax.
	return cfg.Schema + "."
}

func (mysqlBackend) ensureNamespace(db *gorm.DB, cfg config.Database) error {
	var count int64
	err := db.Raw(
		"SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?",
		cfg.Schema,
	).Scan(&count).Error
	if err != nil {
		return fmt.Errorf("check schema %s: %w", cfg.Schema, err)
	}
	if count > 0 {
		return nil
	}
	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS `%s`", cfg.Schema)).Error; err != nil {
		return fmt.Errorf("create schema %s: %w", cfg.Schema, err)
	}
	return nil
}

func (mysqlBackend) bindNamespace(db *gorm.DB, cfg config.Database) error {
	return db.Exec(fmt.Sprintf("USE `%s`", cfg.Schema)).Error
}
