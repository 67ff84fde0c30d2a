package config

import "time"

// Default values applied before the config file and environment are read.
const (
	// DefaultDatabaseName is the SQLite file used when no config is provided.
	DefaultDatabaseName = "taskorbit.db"

	// DefaultTablePrefix namespaces TaskOrbit tables inside a shared SQLite file.
	DefaultTablePrefix = "to_"

	// DefaultSchema is the dedicated schema for server backends.
	DefaultSchema = "taskorbit"

	// DefaultMaxOpenConns bounds the connection pool. Kept deliberately small:
	// one worker process is expected to serve a handful of concurrent requests.
	DefaultMaxOpenConns = 10

	// DefaultMaxIdleConns keeps a few warm connections around between requests.
	DefaultMaxIdleConns = 2

	// DefaultConnectTimeout bounds the initial connectivity check.
	DefaultConnectTimeout = 10 * time.Second
)
