package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap_SQLite(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"database.type":   "sqlite",
		"database.host":   ".",
		"database.name":   "test.db",
		"database.prefix": "to_",
	})

	require.NoError(t, err)
	assert.Equal(t, KindSQLite, cfg.Database.Kind)
	assert.Equal(t, ".", cfg.Database.Host)
	assert.Equal(t, "test.db", cfg.Database.Name)
	assert.Equal(t, "to_", cfg.Database.Prefix)
	assert.False(t, cfg.Database.Echo)
}

func TestFromMap_SQLiteHostDefaultsToCurrentDir(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"database.type": "sqlite",
		"database.name": "test.db",
	})

	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Database.Host)
}

func TestFromMap_Server(t *testing.T) {
	for _, kind := range []string{"postgresql", "mysql"} {
		t.Run(kind, func(t *testing.T) {
			cfg, err := FromMap(map[string]any{
				"database.type":     kind,
				"database.host":     "db.internal",
				"database.user":     "orbit",
				"database.password": "secret",
				"database.name":     "taskorbit",
				"database.schema":   "taskorbit",
			})

			require.NoError(t, err)
			assert.Equal(t, DatabaseKind(kind), cfg.Database.Kind)
			assert.Equal(t, "db.internal", cfg.Database.Host)
			assert.NotZero(t, cfg.Database.Port) // default port filled in
		})
	}
}

func TestFromMap_ServerMissingFields(t *testing.T) {
	base := map[string]any{
		"database.type":     "postgresql",
		"database.host":     "db.internal",
		"database.user":     "orbit",
		"database.password": "secret",
		"database.name":     "taskorbit",
	}

	for _, field := range []string{"database.host", "database.user", "database.password", "database.name"} {
		t.Run(field, func(t *testing.T) {
			values := map[string]any{}
			for k, v := range base {
				values[k] = v
			}
			values[field] = ""

			_, err := FromMap(values)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestFromMap_UnknownKind(t *testing.T) {
	_, err := FromMap(map[string]any{
		"database.type": "oracle",
		"database.name": "test.db",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "database.type", verr.Field)
}

func TestFromMap_UnknownKeysIgnored(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"database.type":         "sqlite",
		"database.name":         "test.db",
		"database.future_knob":  "whatever",
		"observability.tracing": true,
	})

	require.NoError(t, err)
	assert.Equal(t, KindSQLite, cfg.Database.Kind)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `database:
  type: postgresql
  host: db.internal
  user: orbit
  password: file-password
  name: taskorbit
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("TASKORBIT_DATABASE_PASSWORD", "env-password")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, KindPostgreSQL, cfg.Database.Kind)
	// Environment wins over the file for deployment-time secrets.
	assert.Equal(t, "env-password", cfg.Database.Password)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr), "missing file is not a field validation failure")
}

func TestValidate_UnboundedPoolRejected(t *testing.T) {
	_, err := FromMap(map[string]any{
		"database.type":           "sqlite",
		"database.name":           "test.db",
		"database.max_open_conns": 0,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "database.max_open_conns", verr.Field)
}
