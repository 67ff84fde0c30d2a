package database

import (
	"context"

	"gorm.io/gorm"
)

// WithUnitOfWork runs fn inside one database transaction scoped to the
// given context. All writes commit together when fn returns nil and roll
// back entirely when it returns an error or panics; the underlying
// connection is returned to the pool on every exit path.
//
// op names the logical operation for error classification. The error
// returned to the caller is either one of the client-facing sentinels
// (passed through untouched) or a classified storage/pool error.
//
// Each call checks out its own session; units of work are never shared
// across concurrent requests.
func (d *Database) WithUnitOfWork(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := d.DB.WithContext(ctx).Transaction(fn)
	return d.WrapStorage(op, err)
}
