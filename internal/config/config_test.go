package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/amo-data")
	t.Setenv(legacyBaseURLEnv, "")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.API.Timeout)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("/tmp/amo-data", "amo", "state.db"), cfg.Storage.Path)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Forecast.Concurrency)
	assert.Equal(t, 10, cfg.Forecast.PortfolioSize)
	assert.Equal(t, "amo:", cfg.Storage.Redis.Prefix)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AMO_API_BASE_URL", "https://amo.example.com/api")
	t.Setenv("AMO_STORAGE_BACKEND", "pebble")
	t.Setenv("AMO_STORAGE_PATH", "/var/lib/amo")
	t.Setenv("AMO_CACHE_TTL", "15m")
	t.Setenv("AMO_FORECAST_CONCURRENCY", "8")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "https://amo.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, storage.BackendPebble, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/amo", cfg.Storage.Path)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.Forecast.Concurrency)

	opts := cfg.StorageOptions()
	assert.Equal(t, storage.BackendPebble, opts.Backend)
	assert.Equal(t, "/var/lib/amo", opts.Path)
}

func TestLoad_LegacyBaseURL(t *testing.T) {
	t.Setenv(legacyBaseURLEnv, "http://backend:8080")
	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8080", cfg.API.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr error
	}{
		{"relative base url", "api.base_url", "/api", common.ErrInvalidConfig},
		{"unknown backend", "storage.backend", "mongodb", common.ErrInvalidConfig},
		{"redis without addr", "storage.backend", "redis", common.ErrMissingConfig},
		{"negative rate limit", "api.rate_limit", -1, common.ErrInvalidConfig},
		{"zero ttl", "cache.ttl", "0s", common.ErrInvalidConfig},
		{"zero concurrency", "forecast.concurrency", 0, common.ErrInvalidConfig},
		{"zero portfolio", "forecast.portfolio_size", 0, common.ErrInvalidConfig},
		{"bad level", "logging.level", "loud", common.ErrInvalidConfig},
		{"bad format", "logging.format", "xml", common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("AMO_TEST_DOTENV=from-file\nAMO_TEST_PRESET=from-file\n"), 0o600))

	t.Setenv("AMO_TEST_PRESET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("AMO_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("AMO_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("AMO_TEST_PRESET"), "existing variables win")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("AMO_TEST_DIR", "/srv/amo")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "state.db"), ExpandPath("~/state.db"))
	assert.Equal(t, "/srv/amo/state.db", ExpandPath("$AMO_TEST_DIR/state.db"))
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	assert.Equal(t, "/xdg/config/amo", Dir())
	assert.Equal(t, "/xdg/data/amo", DataDir())
}
