package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidConfig is wrapped by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid config")

const envPrefix = "SERVER_"

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Redis       RedisConfig       `koanf:"redis"`
	Cache       CacheConfig       `koanf:"cache"`
	Logging     LoggingConfig     `koanf:"logging"`
	Performance PerformanceConfig `koanf:"performance"`
	Health      HealthConfig      `koanf:"health"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// Workers overrides GOMAXPROCS when positive.
	Workers         int  `koanf:"workers"`
	RequestTimeout  int  `koanf:"request_timeout"`  // seconds
	EnableHTTP2     bool `koanf:"enable_http2"`
	ShutdownTimeout int  `koanf:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	Driver         string `koanf:"driver"` // pgx, postgres, sqlite
	URL            string `koanf:"url"`
	MaxConnections int    `koanf:"max_connections"`
	MinConnections int    `koanf:"min_connections"`
	ConnectTimeout int    `koanf:"connect_timeout"` // seconds
	QueryTimeout   int    `koanf:"query_timeout"`   // seconds
}

type RedisConfig struct {
	URL            string `koanf:"url"`
	MaxConnections int    `koanf:"max_connections"`
	ConnectTimeout int    `koanf:"connect_timeout"` // seconds
}

type CacheConfig struct {
	Backend string `koanf:"backend"` // memory, redis
}

type LoggingConfig struct {
	Level                string `koanf:"level"`
	Format               string `koanf:"format"` // json, pretty
	EnableRequestLogging bool   `koanf:"enable_request_logging"`
}

type PerformanceConfig struct {
	MemoryCacheSize   int  `koanf:"memory_cache_size"`
	MemoryCacheTTL    int  `koanf:"memory_cache_ttl"` // seconds
	EnableCompression bool `koanf:"enable_compression"`
	CompressionLevel  int  `koanf:"compression_level"`
}

type HealthConfig struct {
	Timeout int `koanf:"timeout"` // seconds, budget for one detailed check
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// Defaults returns the values used when neither a file nor the environment
// sets a key.
func Defaults() map[string]any {
	return map[string]any{
		"server.host":             "0.0.0.0",
		"server.port":             3000,
		"server.workers":          0,
		"server.request_timeout":  30,
		"server.enable_http2":     true,
		"server.shutdown_timeout": 30,

		"database.driver":          "pgx",
		"database.url":             "postgresql://localhost/server_rs",
		"database.max_connections": 100,
		"database.min_connections": 5,
		"database.connect_timeout": 10,
		"database.query_timeout":   30,

		"redis.url":             "redis://localhost:6379",
		"redis.max_connections": 20,
		"redis.connect_timeout": 5,

		"cache.backend": "memory",

		"logging.level":                  "info",
		"logging.format":                 "json",
		"logging.enable_request_logging": true,

		"performance.memory_cache_size":  10000,
		"performance.memory_cache_ttl":   300,
		"performance.enable_compression": true,
		"performance.compression_level":  6,

		"health.timeout": 5,

		"telemetry.enabled":      false,
		"telemetry.service_name": "server-go",
	}
}

// Load builds the configuration from defaults, then YAML files, then
// SERVER_-prefixed environment variables. CONFIG_PATH selects a single file;
// otherwise config/default.yaml and config/local.yaml are read if present.
func Load() (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	} else {
		for _, path := range []string{"config/default.yaml", "config/local.yaml"} {
			if err := loadOptional(k, path); err != nil {
				return nil, err
			}
		}
	}

	// SERVER_DATABASE__MAX_CONNECTIONS -> database.max_connections
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadOptional(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks the values the rest of the process relies on. It is
// meant to run once at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port must be between 1 and 65535, got %d", ErrInvalidConfig, c.Server.Port)
	}

	if c.Database.MaxConnections < c.Database.MinConnections {
		return fmt.Errorf("%w: database max_connections (%d) must be >= min_connections (%d)",
			ErrInvalidConfig, c.Database.MaxConnections, c.Database.MinConnections)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("%w: logging level %q must be one of error, warn, info, debug, trace", ErrInvalidConfig, c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "pretty":
	default:
		return fmt.Errorf("%w: logging format %q must be json or pretty", ErrInvalidConfig, c.Logging.Format)
	}

	switch strings.ToLower(c.Database.Driver) {
	case "pgx", "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: database driver %q must be pgx, postgres or sqlite", ErrInvalidConfig, c.Database.Driver)
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: cache backend %q must be memory or redis", ErrInvalidConfig, c.Cache.Backend)
	}

	return nil
}

// ServerAddress returns host:port for the listener.
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) IsDevelopment() bool {
	return os.Getenv("APP_ENV") == "development"
}

func (c *Config) IsProduction() bool {
	return os.Getenv("APP_ENV") == "production"
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (s ServerConfig) RequestTimeoutDuration() time.Duration  { return seconds(s.RequestTimeout) }
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration { return seconds(s.ShutdownTimeout) }
func (d DatabaseConfig) ConnectTimeoutDuration() time.Duration { return seconds(d.ConnectTimeout) }
func (d DatabaseConfig) QueryTimeoutDuration() time.Duration   { return seconds(d.QueryTimeout) }
func (r RedisConfig) ConnectTimeoutDuration() time.Duration    { return seconds(r.ConnectTimeout) }
func (p PerformanceConfig) MemoryCacheTTLDuration() time.Duration {
	return seconds(p.MemoryCacheTTL)
}
func (h HealthConfig) TimeoutDuration() time.Duration { return seconds(h.Timeout) }
