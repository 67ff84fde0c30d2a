package database

import (
	"log"

	"github.com/taskorbit/taskorbit/internal/entities"
)

// EnsureSchema idempotently prepares the namespace and tables. It is run
// on every process start: it only ever creates what is missing, and never
// drops or truncates. Re-running against an initialized database is a
// no-op.
//
// Server backends get a dedicated schema (created only if the role is
// permitted and the schema is absent) and have the session's working
// schema bound to it. The file backend relies on prefixed table names
// instead.
func (d *Database) EnsureSchema() error {
	if err := d.backend.ensureNamespace(d.DB, d.cfg); err != nil {
		return d.WrapStorage("schema.ensure", err)
	}
	if err := d.backend.bindNamespace(d.DB, d.cfg); err != nil {
		return d.WrapStorage("schema.bind", err)
	}

	if err := d.DB.AutoMigrate(&entities.User{}, &entities.Task{}); err != nil {
		return d.WrapStorage("schema.migrate", err)
	}

	log.Printf("Schema ready (%s backend, namespace %q)", d.cfg.Kind, d.namespace())
	return nil
}

func (d *Database) namespace() string {
	if d.cfg.Kind.IsServer() {
		return d.cfg.Schema
	}
	return d.cfg.Prefix
}
