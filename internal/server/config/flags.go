package config

import (
	"flag"
	"os"
	"strings"
)

// configPath ищет путь к YAML файлу во флагах -config/--config,
// затем в переменной окружения GOPHBLOG_CONFIG
func configPath(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}

	return os.Getenv(envPrefix + "CONFIG")
}

// parseFlags populates Config fields from command-line flags.
// Значения по умолчанию для флагов берутся из уже загруженной конфигурации,
// поэтому флаг меняет значение только если он явно передан.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("gophblog", flag.ContinueOnError)

	// разбирается отдельно в configPath, здесь только чтобы флаг был известен
	_ = fs.String("config", "", "path to YAML config file")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "show version information")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "environment (development, production)")
	fs.StringVar(&cfg.Server.Address, "a", cfg.Server.Address, "address and port to run server")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Storage.Driver, "storage", cfg.Storage.Driver, "storage driver (sqlite, postgres)")
	fs.StringVar(&cfg.Storage.SQLitePath, "sqlite-path", cfg.Storage.SQLitePath, "sqlite database file")
	fs.StringVar(&cfg.Storage.PostgresDSN, "d", cfg.Storage.PostgresDSN, "postgres DSN")
	fs.StringVar(&cfg.Denylist.Driver, "denylist", cfg.Denylist.Driver, "revoked token storage (bolt, redis, sql, none)")
	fs.StringVar(&cfg.Denylist.BoltPath, "bolt-path", cfg.Denylist.BoltPath, "bolt denylist file")
	fs.StringVar(&cfg.Denylist.RedisURL, "redis-url", cfg.Denylist.RedisURL, "redis URL for denylist")
	fs.StringVar(&cfg.Auth.JWTSecret, "s", cfg.Auth.JWTSecret, "JWT signing secret")
	fs.DurationVar(&cfg.Auth.TokenTTL, "token-ttl", cfg.Auth.TokenTTL, "access token lifetime")
	fs.IntVar(&cfg.Auth.BcryptCost, "bcrypt-cost", cfg.Auth.BcryptCost, "bcrypt cost")
	fs.BoolVar(&cfg.Auth.RequireUsername, "require-username", cfg.Auth.RequireUsername, "require username on registration")
	fs.BoolVar(&cfg.Server.TrustProxyHeaders, "trust-proxy", cfg.Server.TrustProxyHeaders, "trust X-Forwarded-For for rate limiting")

	fs.Func("cors-origins", "comma separated CORS allowed origins (* for any)", func(value string) error {
		cfg.Server.CORSAllowedOrigins = splitList(value)
		return nil
	})

	return fs.Parse(args)
}
