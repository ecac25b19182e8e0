package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

// EnvPrefix namespaces environment overrides: api.base_url is AMO_API_BASE_URL.
const EnvPrefix = "AMO"

// Defaults.
const (
	DefaultBaseURL       = "http://localhost:5000"
	DefaultTimeout       = 30 * time.Second
	DefaultCacheTTL      = time.Hour
	DefaultConcurrency   = 3
	DefaultPortfolioSize = 10
	DefaultRedisPrefix   = "amo:"
)

// legacyBaseURLEnv is honoured when api.base_url is not configured.
const legacyBaseURLEnv = "NEXT_PUBLIC_API_BASE_URL"

// Config is the resolved client configuration.
type Config struct {
	API      APIConfig
	Storage  StorageConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Cache    CacheConfig
	Forecast ForecastConfig
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RateLimit int // requests per minute, zero means unlimited
}

// StorageConfig selects the local state backend.
type StorageConfig struct {
	Backend string
	Path    string
	Redis   storage.RedisOptions
}

// CacheConfig tunes the forecast cache.
type CacheConfig struct {
	TTL time.Duration
}

// ForecastConfig tunes batch forecasting.
type ForecastConfig struct {
	Concurrency   int
	PortfolioSize int
}

// MetricsConfig enables the prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("api.token", "")
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("storage.backend", storage.BackendSQLite)
	v.SetDefault("storage.path", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", DefaultRedisPrefix)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("forecast.concurrency", DefaultConcurrency)
	v.SetDefault("forecast.portfolio_size", DefaultPortfolioSize)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv makes AMO_SECTION_KEY variables override section.key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		p = ExpandPath(p)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		slog.Debug("Loaded environment file", "path", p)
	}
	return nil
}

// Load resolves the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:   strings.TrimSpace(v.GetString("api.base_url")),
			Token:     v.GetString("api.token"),
			Timeout:   v.GetDuration("api.timeout"),
			RateLimit: v.GetInt("api.rate_limit"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(v.GetString("storage.backend")),
			Path:    ExpandPath(v.GetString("storage.path")),
			Redis: storage.RedisOptions{
				Addr:     v.GetString("redis.addr"),
				Password: v.GetString("redis.password"),
				DB:       v.GetInt("redis.db"),
				Prefix:   v.GetString("redis.prefix"),
			},
		},
		Cache:    CacheConfig{TTL: v.GetDuration("cache.ttl")},
		Forecast: ForecastConfig{Concurrency: v.GetInt("forecast.concurrency"), PortfolioSize: v.GetInt("forecast.portfolio_size")},
		Metrics:  MetricsConfig{Addr: v.GetString("metrics.addr")},
		Logging:  LoggingConfig{Level: v.GetString("logging.level"), Format: v.GetString("logging.format")},
	}

	// Fall back to the frontend's variable when the base URL was left at its default.
	if cfg.API.BaseURL == "" || cfg.API.BaseURL == DefaultBaseURL {
		if legacy := os.Getenv(legacyBaseURLEnv); legacy != "" {
			cfg.API.BaseURL = legacy
		}
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath(cfg.Storage.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultStoragePath(backend string) string {
	switch backend {
	case storage.BackendPebble:
		return filepath.Join(DataDir(), "state.pebble")
	default:
		return filepath.Join(DataDir(), "state.db")
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q is not an absolute URL", common.ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", common.ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", common.ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case storage.BackendSQLite, storage.BackendPebble, storage.BackendMemory:
	case storage.BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr is required for the redis backend", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: storage.backend %q (want sqlite, pebble, redis or memory)",
			common.ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive", common.ErrInvalidConfig)
	}
	if c.Forecast.Concurrency < 1 {
		return fmt.Errorf("%w: forecast.concurrency must be at least 1", common.ErrInvalidConfig)
	}
	if c.Forecast.PortfolioSize < 1 {
		return fmt.Errorf("%w: forecast.portfolio_size must be at least 1", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Storage.Backend,
		Path:    c.Storage.Path,
		Redis:   c.Storage.Redis,
	}
}
