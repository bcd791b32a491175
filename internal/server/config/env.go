package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "GOPHBLOG_"

// loadEnv overrides configuration from GOPHBLOG_* environment variables
func loadEnv(cfg *Config) error {
	var errs []error

	setString(&cfg.Environment, "ENVIRONMENT")

	setString(&cfg.Server.Address, "ADDRESS")
	errs = append(errs,
		setDuration(&cfg.Server.ReadTimeout, "READ_TIMEOUT"),
		setDuration(&cfg.Server.WriteTimeout, "WRITE_TIMEOUT"),
		setDuration(&cfg.Server.IdleTimeout, "IDLE_TIMEOUT"),
		setDuration(&cfg.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
		setInt(&cfg.Server.AuthRateLimit, "AUTH_RATE_LIMIT"),
		setDuration(&cfg.Server.AuthRateWindow, "AUTH_RATE_WINDOW"),
		setBool(&cfg.Server.TrustProxyHeaders, "TRUST_PROXY_HEADERS"),
	)
	setList(&cfg.Server.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")

	setString(&cfg.Log.Level, "LOG_LEVEL")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Storage.PostgresDSN, "POSTGRES_DSN")

	setString(&cfg.Denylist.Driver, "DENYLIST_DRIVER")
	setString(&cfg.Denylist.BoltPath, "BOLT_PATH")
	setString(&cfg.Denylist.RedisURL, "REDIS_URL")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	errs = append(errs,
		setDuration(&cfg.Auth.TokenTTL, "TOKEN_TTL"),
		setInt(&cfg.Auth.BcryptCost, "BCRYPT_COST"),
		setInt(&cfg.Auth.MaxConcurrentHashes, "MAX_CONCURRENT_HASHES"),
		setBool(&cfg.Auth.RequireUsername, "REQUIRE_USERNAME"),
		setInt(&cfg.Auth.UserCacheSize, "USER_CACHE_SIZE"),
		setDuration(&cfg.Auth.UserCacheTTL, "USER_CACHE_TTL"),
		setInt(&cfg.Posts.MaxImageBytes, "MAX_IMAGE_BYTES"),
		setInt64(&cfg.Posts.MaxBodyBytes, "MAX_BODY_BYTES"),
	)

	setString(&cfg.Jobs.SweepSchedule, "SWEEP_SCHEDULE")

	return errors.Join(errs...)
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func setString(dst *string, key string) {
	if value, ok := lookupEnv(key); ok {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = d
	return nil
}

// setList разбирает значения через запятую; пустая строка в переменной игнорируется
func setList(dst *[]string, key string) {
	if value, ok := lookupEnv(key); ok {
		*dst = splitList(value)
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
