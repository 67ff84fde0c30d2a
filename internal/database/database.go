package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/taskorbit/taskorbit/internal/config"
)

// Database is the shared handle produced by the backend factory. It owns
// the connection pool; all reads and writes go through it, either directly
// or via a unit of work.
type Database struct {
	DB *gorm.DB

	cfg     config.Database
	backend backend
}

// NewDatabase selects the backend for the configured kind, opens the
// connection pool and verifies connectivity. A failure here is fatal to
// startup: the process must not serve traffic without a database.
func NewDatabase(cfg config.Database) (*Database, error) {
	be, err := backendFor(cfg.Kind)
	if err != nil {
		return nil, err
	}

	dialector, err := be.dialector(cfg)
	if err != nil {
		return nil, &ConnectionError{Kind: cfg.Kind, Err: err}
	}

	logMode := logger.Warn
	if cfg.Echo {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   be.tablePrefix(cfg),
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, &ConnectionError{Kind: cfg.Kind, Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &ConnectionError{Kind: cfg.Kind, Err: err}
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, &ConnectionError{Kind: cfg.Kind, Err: err}
	}

	d := &Database{DB: db, cfg: cfg, backend: be}
	log.Printf("Connected to %s database %q", cfg.Kind, cfg.Name)
	return d, nil
}

// Kind returns the backend kind this handle was built for.
func (d *Database) Kind() config.DatabaseKind {
	return d.cfg.Kind
}

// Ping verifies the database is still reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SQLDB exposes the underlying pool, e.g. for the session store.
func (d *Database) SQLDB() (*sql.DB, error) {
	return d.DB.DB()
}

// Close releases the connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) String() string {
	return fmt.Sprintf("Database(%s, %s)", d.cfg.Kind, d.cfg.Name)
}
