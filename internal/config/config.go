// Package config resolves and validates TaskOrbit configuration.
//
// Configuration comes from three layers, later layers winning:
// built-in defaults, an optional YAML file, and TASKORBIT_* environment
// variables (so deployment-time secrets never have to live in the file).
// The resulting Config is validated before any connection attempt and is
// treated as read-only for the lifetime of the process.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseKind identifies which database engine a configuration targets.
type DatabaseKind string

const (
	KindSQLite     DatabaseKind = "sqlite"
	KindPostgreSQL DatabaseKind = "postgresql"
	KindMySQL      DatabaseKind = "mysql"
)

// Kinds lists the supported backend kinds.
var Kinds = []DatabaseKind{KindSQLite, KindPostgreSQL, KindMySQL}

// IsServer reports whether the kind is a networked server database
// as opposed to a local file database.
func (k DatabaseKind) IsServer() bool {
	return k == KindPostgreSQL || k == KindMySQL
}

// ValidationError reports the first invalid or missing configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
}

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Retention
	}

	HTTP struct {
		Host string
		Port int32
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Kind DatabaseKind
		// Host is the directory holding the database file for sqlite,
		// and the server hostname for postgresql/mysql.
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		// Schema is the dedicated namespace for server backends.
		Schema string
		// Prefix namespaces table names for the file backend.
		Prefix string
		// Echo enables SQL statement logging.
		Echo bool

		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
		ConnectTimeout  time.Duration
	}

	Auth struct {
		BcryptCost      int
		SessionSecret   string
		SessionLifetime time.Duration
		SecureCookies   bool
	}

	Retention struct {
		Enabled  bool
		Schedule string // cron format: "0 3 * * *" = daily at 03:00
		MaxAge   time.Duration
	}
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("taskorbit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8188)
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("database.type", string(KindSQLite))
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", DefaultDatabaseName)
	v.SetDefault("database.schema", DefaultSchema)
	v.SetDefault("database.prefix", DefaultTablePrefix)
	v.SetDefault("database.echo", false)
	v.SetDefault("database.max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", DefaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.connect_timeout", DefaultConnectTimeout)

	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.session_secret", "") // auto-generated if empty
	v.SetDefault("auth.session_lifetime", "24h")
	v.SetDefault("auth.secure_cookies", true)

	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.schedule", "0 3 * * *")
	v.SetDefault("retention.max_age", "720h")

	return v
}

// Load reads the YAML file at path (if non-empty), applies environment
// overrides and returns a validated Config.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return build(v)
}

// FromMap builds a validated Config from an in-memory mapping using the
// same key names as the config file. Unknown keys are ignored.
func FromMap(values map[string]any) (*Config, error) {
	v := newViper()
	for key, value := range values {
		v.Set(key, value)
	}
	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTP: HTTP{
			Host: v.GetString("http.host"),
			Port: v.GetInt32("http.port"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("shutdown_timeout_in_seconds"),
		},
		Database: Database{
			Kind:            DatabaseKind(v.GetString("database.type")),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			Schema:          v.GetString("database.schema"),
			Prefix:          v.GetString("database.prefix"),
			Echo:            v.GetBool("database.echo"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnectTimeout:  v.GetDuration("database.connect_timeout"),
		},
		Auth: Auth{
			BcryptCost:      v.GetInt("auth.bcrypt_cost"),
			SessionSecret:   v.GetString("auth.session_secret"),
			SessionLifetime: v.GetDuration("auth.session_lifetime"),
			SecureCookies:   v.GetBool("auth.secure_cookies"),
		},
		Retention: Retention{
			Enabled:  v.GetBool("retention.enabled"),
			Schedule: v.GetString("retention.schedule"),
			MaxAge:   v.GetDuration("retention.max_age"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and returns a *ValidationError naming
// the first invalid field. It performs no I/O.
func (c *Config) Validate() error {
	db := &c.Database

	switch db.Kind {
	case KindSQLite:
		if db.Name == "" {
			return &ValidationError{Field: "database.name", Reason: "sqlite requires a file name"}
		}
		if db.Host == "" {
			// Directory of the database file, current working directory by default.
			db.Host = "."
		}
		if db.Prefix == "" {
			return &ValidationError{Field: "database.prefix", Reason: "sqlite requires a table prefix"}
		}
	case KindPostgreSQL, KindMySQL:
		for _, required := range []struct {
			field string
			value string
		}{
			{"database.host", db.Host},
			{"database.user", db.User},
			{"database.password", db.Password},
			{"database.name", db.Name},
		} {
			if required.value == "" {
				return &ValidationError{
					Field:  required.field,
					Reason: fmt.Sprintf("required for %s backend", db.Kind),
				}
			}
		}
		if db.Schema == "" {
			return &ValidationError{Field: "database.schema", Reason: "server backends require a schema"}
		}
		if db.Port == 0 {
			db.Port = defaultPort(db.Kind)
		}
	default:
		return &ValidationError{
			Field:  "database.type",
			Reason: fmt.Sprintf("must be one of %v", Kinds),
		}
	}

	if db.MaxOpenConns <= 0 {
		return &ValidationError{Field: "database.max_open_conns", Reason: "pool must be bounded and positive"}
	}
	if db.ConnectTimeout <= 0 {
		return &ValidationError{Field: "database.connect_timeout", Reason: "must be a finite positive duration"}
	}
	return nil
}

func defaultPort(kind DatabaseKind) int {
	switch kind {
	case KindPostgreSQL:
		return 5432
	case KindMySQL:
		return 3306
	default:
		return 0
	}
}
