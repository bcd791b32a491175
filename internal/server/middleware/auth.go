package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/gophblog/internal/server/auth"
)

// Authenticator проверяет токен и возвращает identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware создает middleware для проверки Bearer токена.
// Без валидного токена запрос не доходит до обработчика.
func AuthMiddleware(logger *slog.Logger, authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := auth.ParseBearer(r.Header.Get("Authorization"))
			if err != nil {
				logger.DebugContext(ctx, "Missing or malformed Authorization header",
					slog.String("path", r.URL.Path),
				)
				writeError(w, auth.ErrUnauthenticated.Error(), http.StatusUnauthorized)
				return
			}

			identity, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidOrExpiredToken) || errors.Is(err, auth.ErrUnauthenticated) {
					logger.WarnContext(ctx, "Invalid access token",
						slog.String("path", r.URL.Path),
						slog.Any("error", err),
					)
					writeError(w, auth.ErrInvalidOrExpiredToken.Error(), http.StatusUnauthorized)
					return
				}

				logger.ErrorContext(ctx, "Failed to authenticate request", slog.Any("error", err))
				writeError(w, "internal server error", http.StatusInternalServerError)
				return
			}

			logger.DebugContext(ctx, "User authenticated", slog.String("user_id", identity.UserID))

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, identity)))
		})
	}
}

// OptionalAuthMiddleware добавляет identity в context, если передан валидный токен.
// Запросы без токена или с невалидным токеном проходят анонимно.
func OptionalAuthMiddleware(logger *slog.Logger, authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := auth.ParseBearer(r.Header.Get("Authorization"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				logger.DebugContext(ctx, "Ignoring invalid token on public route", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, identity)))
		})
	}
}
