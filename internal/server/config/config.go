// Package config handles configuration for the server component,
// including defaults, YAML overlay, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
)

// Окружения
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Драйверы хранилища
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Драйверы denylist отозванных токенов
const (
	DenylistBolt  = "bolt"
	DenylistRedis = "redis"
	DenylistSQL   = "sql"
	DenylistNone  = "none"
)

// Config holds runtime settings for the gophblog server.
// Порядок применения: значения по умолчанию, YAML файл, переменные окружения GOPHBLOG_*, флаги.
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Log         LogConfig      `yaml:"log"`
	Storage     StorageConfig  `yaml:"storage"`
	Denylist    DenylistConfig `yaml:"denylist"`
	Auth        AuthConfig     `yaml:"auth"`
	Posts       PostsConfig    `yaml:"posts"`
	Jobs        JobsConfig     `yaml:"jobs"`

	// ShowVersion выставляется флагом -version
	ShowVersion bool `yaml:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `yaml:"address"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	AuthRateLimit     int           `yaml:"auth_rate_limit"`
	AuthRateWindow    time.Duration `yaml:"auth_rate_window"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers"`

	// CORSAllowedOrigins origin браузерных клиентов, "*" разрешает любой
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig holds credential and post storage configuration
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// DenylistConfig holds revoked token storage configuration
type DenylistConfig struct {
	Driver   string `yaml:"driver"`
	BoltPath string `yaml:"bolt_path"`
	RedisURL string `yaml:"redis_url"`
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
	Issuer              string        `yaml:"issuer"`
	BcryptCost          int           `yaml:"bcrypt_cost"`
	MaxConcurrentHashes int           `yaml:"max_concurrent_hashes"`
	RequireUsername     bool          `yaml:"require_username"`
	UserCacheSize       int           `yaml:"user_cache_size"`
	UserCacheTTL        time.Duration `yaml:"user_cache_ttl"`
}

// PostsConfig holds request size limits for posts
type PostsConfig struct {
	MaxImageBytes int   `yaml:"max_image_bytes"`
	MaxBodyBytes  int64 `yaml:"max_body_bytes"`
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	SweepSchedule string `yaml:"sweep_schedule"`
}

// Default returns configuration with built-in defaults.
// JWT secret has no default and must be provided explicitly.
func Default() *Config {
	return &Config{
		Environment: EnvProduction,
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AuthRateLimit:   10,
			AuthRateWindow:  time.Minute,

			// SPA обычно отдается с другого origin
			CORSAllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Driver:     StorageSQLite,
			SQLitePath: "gophblog.db",
		},
		Denylist: DenylistConfig{
			Driver:   DenylistBolt,
			BoltPath: "gophblog-denylist.db",
		},
		Auth: AuthConfig{
			TokenTTL:            time.Hour,
			Issuer:              "gophblog",
			BcryptCost:          bcrypt.DefaultCost,
			MaxConcurrentHashes: runtime.NumCPU(),
			UserCacheSize:       1024,
			UserCacheTTL:        time.Minute,
		},
		Posts: PostsConfig{
			MaxImageBytes: 8 << 20,
			MaxBodyBytes:  12 << 20,
		},
		Jobs: JobsConfig{
			SweepSchedule: "@every 10m",
		},
	}
}

// Load builds a Config by applying defaults, then overlaying values
// from an optional YAML file, GOPHBLOG_* environment variables and
// finally from command-line flags. The result is validated.
func Load(args []string) (*Config, error) {
	cfg := Default()

	path := configPath(args)
	if path != "" {
		if err := loadYAML(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsDevelopment сообщает, запущен ли сервер в development окружении
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LogLevel возвращает уровень логирования slog
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Server.AuthRateLimit <= 0 || c.Server.AuthRateWindow <= 0 {
		errs = append(errs, errors.New("auth rate limit and window must be positive"))
	}
	for _, origin := range c.Server.CORSAllowedOrigins {
		if err := validateOrigin(origin); err != nil {
			errs = append(errs, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is required for sqlite storage"))
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres DSN is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	switch c.Denylist.Driver {
	case DenylistBolt:
		if c.Denylist.BoltPath == "" {
			errs = append(errs, errors.New("bolt path is required for bolt denylist"))
		}
	case DenylistRedis:
		if c.Denylist.RedisURL == "" {
			errs = append(errs, errors.New("redis URL is required for redis denylist"))
		}
	case DenylistSQL, DenylistNone:
	default:
		errs = append(errs, fmt.Errorf("unknown denylist driver %q", c.Denylist.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.MaxConcurrentHashes <= 0 {
		errs = append(errs, errors.New("max concurrent hashes must be positive"))
	}

	if c.Posts.MaxImageBytes <= 0 || c.Posts.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("posts size limits must be positive"))
	}

	if _, err := cron.ParseStandard(c.Jobs.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid sweep schedule %q: %w", c.Jobs.SweepSchedule, err))
	}

	return errors.Join(errs...)
}

// validateOrigin принимает "*" или scheme://host[:port] без пути и завершающего слеша
func validateOrigin(origin string) error {
	if origin == "*" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" || u.Path != "" {
		return fmt.Errorf("invalid CORS origin %q", origin)
	}
	return nil
}
