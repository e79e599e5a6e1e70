package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "v1", cfg.APIVersion)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo.toml")
	content := `
server_port = 9000
api_version = "v2"
store_driver = "sqlite"
sqlite_path = "/tmp/file.db"
cache_ttl = "30s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_VERSION", "v3")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "v3", cfg.APIVersion)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/file.db", cfg.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"port":    {"SERVER_PORT": "not-a-port"},
		"driver":  {"STORE_DRIVER": "cassandra"},
		"timeout": {"DB_TIMEOUT": "soon"},
		"ttl":     {"CACHE_TTL": "-1s"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadReminder(t *testing.T) {
	t.Setenv("TODO_API_URL", "http://api.local/v1/")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadReminder()
	require.NoError(t, err)
	assert.Equal(t, "http://api.local/v1", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "json", cfg.LogFormat)

	t.Setenv("POLL_INTERVAL", "0s")
	_, err = LoadReminder()
	assert.Error(t, err)
}
