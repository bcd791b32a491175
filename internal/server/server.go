// Package server wires storage, authentication and HTTP layers of gophblog
// and runs them until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/gophblog/internal/crypto"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/config"
	"github.com/iudanet/gophblog/internal/server/handlers"
	"github.com/iudanet/gophblog/internal/server/jobs"
	"github.com/iudanet/gophblog/internal/server/jwt"
	"github.com/iudanet/gophblog/internal/server/metrics"
	"github.com/iudanet/gophblog/internal/server/middleware"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/internal/server/storage/boltdb"
	"github.com/iudanet/gophblog/internal/server/storage/postgres"
	"github.com/iudanet/gophblog/internal/server/storage/redis"
	"github.com/iudanet/gophblog/internal/server/storage/sqlite"
)

// Store основное хранилище: пользователи, посты и таблица отозванных токенов
type Store interface {
	storage.UserStorage
	storage.PostStorage
	storage.RevokedTokenStorage
	storage.Pinger
}

// Server HTTP сервер блога
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	version string
}

// New создает сервер
func New(cfg *config.Config, logger *slog.Logger, version string) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		version: version,
	}
}

// NewLogger создает логгер: JSON в production, текст в development
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}

	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Run открывает хранилища, запускает HTTP сервер и фоновые задачи.
// Возвращается после отмены ctx и корректной остановки всех компонентов.
func (s *Server) Run(ctx context.Context) error {
	store, err := OpenStore(ctx, s.cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			s.logger.Error("Failed to close storage", slog.Any("error", err))
		}
	}()

	denylist, err := OpenDenylist(ctx, s.cfg.Denylist, store)
	if err != nil {
		return err
	}
	if denylist != nil {
		defer func() {
			if err := denylist.Close(); err != nil {
				s.logger.Error("Failed to close denylist", slog.Any("error", err))
			}
		}()
	}

	m := metrics.New()

	authService, err := s.newAuthService(store, denylist, m)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(
		s.cfg.Server.AuthRateLimit,
		s.cfg.Server.AuthRateWindow,
		s.logger,
		middleware.WithTrustProxy(s.cfg.Server.TrustProxyHeaders),
	)
	defer limiter.Stop()

	handler := NewRouter(RouterDeps{
		Logger:        s.logger,
		Auth:          authService,
		Authenticator: authService,
		Posts:         store,
		Pinger:        store,
		Metrics:       m,
		RateLimiter:   limiter,
		PostLimits: handlers.PostLimits{
			MaxBodyBytes:  s.cfg.Posts.MaxBodyBytes,
			MaxImageBytes: s.cfg.Posts.MaxImageBytes,
		},
		Version:     s.version,
		Development: s.cfg.IsDevelopment(),

		CORSAllowedOrigins: s.cfg.Server.CORSAllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:         s.cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	// redis не хранит истекшие записи, очищать нечего
	var scheduler *jobs.Scheduler
	if denylist != nil && s.cfg.Denylist.Driver != config.DenylistRedis {
		scheduler = jobs.NewScheduler(s.logger)
	}

	g, gctx := errgroup.WithContext(ctx)

	if scheduler != nil {
		if err := scheduler.AddSweep(gctx, s.cfg.Jobs.SweepSchedule, jobs.NewSweepJob(s.logger, denylist, m)); err != nil {
			return err
		}
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	g.Go(func() error {
		s.logger.Info("HTTP server started",
			slog.String("address", s.cfg.Server.Address),
			slog.String("environment", s.cfg.Environment),
			slog.String("storage", s.cfg.Storage.Driver),
			slog.String("denylist", s.cfg.Denylist.Driver),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) newAuthService(users storage.UserStorage, denylist storage.RevokedTokenStorage, m *metrics.Metrics) (*auth.Service, error) {
	tokens, err := jwt.NewService([]byte(s.cfg.Auth.JWTSecret), s.cfg.Auth.TokenTTL, s.cfg.Auth.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	hasher, err := crypto.NewPasswordHasher(s.cfg.Auth.BcryptCost, s.cfg.Auth.MaxConcurrentHashes)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	opts := []auth.Option{
		auth.WithRecorder(m),
		auth.WithRequireUsername(s.cfg.Auth.RequireUsername),
		auth.WithUserCache(s.cfg.Auth.UserCacheSize, s.cfg.Auth.UserCacheTTL),
	}
	if denylist != nil {
		opts = append(opts, auth.WithDenylist(denylist))
	}

	return auth.NewService(s.logger, users, tokens, hasher, opts...), nil
}

// OpenStore открывает основное хранилище по драйверу из конфигурации
func OpenStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		store, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenDenylist открывает хранилище отозванных токенов.
// Для драйвера none возвращает nil: logout выполняется только на клиенте.
func OpenDenylist(ctx context.Context, cfg config.DenylistConfig, store Store) (storage.RevokedTokenStorage, error) {
	switch cfg.Driver {
	case config.DenylistBolt:
		denylist, err := boltdb.New(ctx, cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt denylist: %w", err)
		}
		return denylist, nil
	case config.DenylistRedis:
		denylist, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis denylist: %w", err)
		}
		return denylist, nil
	case config.DenylistSQL:
		// таблица в основном хранилище, закрывается вместе с ним
		return sharedDenylist{store}, nil
	case config.DenylistNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown denylist driver %q", cfg.Driver)
	}
}

type sharedDenylist struct {
	storage.RevokedTokenStorage
}

func (sharedDenylist) Close() error { return nil }
