package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskorbit/taskorbit/internal/config"
)

// Client-facing sentinel errors. These are expected control flow and are
// never logged as failures by the persistence layer.
var (
	// ErrNotFound is returned when a row is absent or not owned by the
	// requesting user. The two cases are deliberately indistinguishable so
	// existence of other users' rows never leaks.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned for rejected input such as an empty task title.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists is returned when an insert hits a uniqueness
	// constraint, such as a duplicate user name.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrPoolExhausted indicates a transient failure to check out a
	// connection within the configured timeout. Callers may retry.
	ErrPoolExhausted = errors.New("connection pool exhausted")
)

// ConnectionError wraps a driver error raised while reaching the database.
// Fatal at startup; retryable during normal operation.
type ConnectionError struct {
	Kind config.DatabaseKind
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s database: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StorageError wraps an unexpected driver failure with the operation name
// and backend kind. The message carries no credentials and no row data.
type StorageError struct {
	Op   string
	Kind config.DatabaseKind
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s (%s backend): %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage classifies a driver error: context timeouts while waiting for
// a pooled connection become ErrPoolExhausted, everything else becomes a
// StorageError for the named operation. Sentinel errors pass through.
func (d *Database) WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrAlreadyExists) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}
	return &StorageError{Op: op, Kind: d.cfg.Kind, Err: err}
}
