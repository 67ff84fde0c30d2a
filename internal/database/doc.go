// Package database provides the persistence layer for TaskOrbit.
//
// # Architecture
//
// The layer is organized into domain-specific sub-packages:
//
//	database/
//	├── backend.go       # Backend variants: SQLite, PostgreSQL, MySQL
//	├── database.go      # Factory: pool setup, connectivity check
//	├── schema.go        # Idempotent schema/table creation and binding
//	├── session.go       # Unit-of-work (transaction per logical operation)
//	├── seed.go          # Default admin user and sample tasks
//	├── tasks/           # Task CRUD and search
//	└── users/           # User management
//
// # Using Sub-packages
//
// Each sub-package provides a Repository constructed over a *gorm.DB, which
// may be the root handle or a unit-of-work transaction:
//
//	db, err := database.NewDatabase(cfg.Database)
//	err = db.EnsureSchema()
//
//	err = db.WithUnitOfWork(ctx, "tasks.create", func(tx *gorm.DB) error {
//		_, err := tasks.NewRepository(tx).Create(ownerID, title, description)
//		return err
//	})
//
// # Error Classification
//
// Repositories return the client-facing sentinels ErrNotFound and
// ErrInvalidInput for expected outcomes. WithUnitOfWork classifies
// everything else into StorageError or ErrPoolExhausted, so callers only
// ever deal with the typed taxonomy in errors.go.
//
// # Namespace Isolation
//
// Table names are resolved through a naming strategy fixed at startup:
// "<schema>." qualification for server backends, a plain table prefix for
// SQLite files shared with other applications. The strategy never changes
// during the process lifetime.
package database
