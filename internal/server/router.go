package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iudanet/gophblog/internal/server/handlers"
	"github.com/iudanet/gophblog/internal/server/metrics"
	"github.com/iudanet/gophblog/internal/server/middleware"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/pkg/api"
)

// RouterDeps зависимости HTTP слоя
type RouterDeps struct {
	Logger        *slog.Logger
	Auth          handlers.AuthService
	Authenticator middleware.Authenticator
	Posts         storage.PostStorage
	Pinger        storage.Pinger
	Metrics       *metrics.Metrics
	RateLimiter   *middleware.RateLimiter
	PostLimits    handlers.PostLimits
	Version       string
	Development   bool

	// Пустой список отключает CORS
	CORSAllowedOrigins []string
}

// NewRouter собирает маршруты API.
// Все маршруты приложения смонтированы под /api, метрики отдаются на /metrics.
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Logger, deps.Auth, deps.Development)
	postHandler := handlers.NewPostHandler(deps.Logger, deps.Posts, deps.PostLimits, deps.Development)
	healthHandler := handlers.NewHealthHandler(deps.Logger, deps.Pinger, deps.Version)

	requireAuth := middleware.AuthMiddleware(deps.Logger, deps.Authenticator)
	optionalAuth := middleware.OptionalAuthMiddleware(deps.Logger, deps.Authenticator)

	limited := func(h http.HandlerFunc) http.Handler {
		if deps.RateLimiter == nil {
			return h
		}
		return deps.RateLimiter.Middleware(h)
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.NotFoundHandler = deps.Metrics.Middleware(r.NotFoundHandler)
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.Handle("/register", limited(authHandler.Register)).Methods(http.MethodPost)
	authRouter.Handle("/login", limited(authHandler.Login)).Methods(http.MethodPost)
	authRouter.Handle("/me", requireAuth(http.HandlerFunc(authHandler.Me))).Methods(http.MethodGet)
	authRouter.Handle("/logout", requireAuth(http.HandlerFunc(authHandler.Logout))).Methods(http.MethodPost)

	postsRouter := apiRouter.PathPrefix("/posts").Subrouter()
	postsRouter.Handle("", optionalAuth(http.HandlerFunc(postHandler.List))).Methods(http.MethodGet)
	postsRouter.Handle("", requireAuth(http.HandlerFunc(postHandler.Create))).Methods(http.MethodPost)
	postsRouter.Handle("/{id}", optionalAuth(http.HandlerFunc(postHandler.Get))).Methods(http.MethodGet)
	postsRouter.Handle("/{id}", requireAuth(http.HandlerFunc(postHandler.Update))).Methods(http.MethodPut)
	postsRouter.Handle("/{id}", requireAuth(http.HandlerFunc(postHandler.Delete))).Methods(http.MethodDelete)
	postsRouter.Handle("/{id}/like", requireAuth(http.HandlerFunc(postHandler.Like))).Methods(http.MethodPut)
	postsRouter.Handle("/{id}/comment", requireAuth(http.HandlerFunc(postHandler.Comment))).Methods(http.MethodPost)
	postsRouter.Handle("/{id}/comments/{commentID}", requireAuth(http.HandlerFunc(postHandler.DeleteComment))).
		Methods(http.MethodDelete)

	handler := handleOptions(r)
	if len(deps.CORSAllowedOrigins) > 0 {
		handler = middleware.CORSMiddleware(deps.CORSAllowedOrigins)(handler)
	}
	handler = middleware.LoggingWithSkip(deps.Logger, []string{"/metrics", "/api/health"})(handler)
	handler = middleware.RecoveryMiddleware(deps.Logger)(handler)

	return otelhttp.NewHandler(handler, "gophblog",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}),
	)
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// handleOptions отвечает на OPTIONS, не являющийся CORS preflight:
// 405 с заголовком Allow для существующего пути и 404 для неизвестного.
func handleOptions(r *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodOptions {
			r.ServeHTTP(w, req)
			return
		}

		var allowed []string
		for _, method := range routeMethods {
			candidate := req.Clone(req.Context())
			candidate.Method = method

			var match mux.RouteMatch
			if r.Match(candidate, &match) && match.MatchErr == nil {
				allowed = append(allowed, method)
			}
		}

		if len(allowed) == 0 {
			notFound(w, req)
			return
		}

		w.Header().Set("Allow", strings.Join(allowed, ", "))
		methodNotAllowed(w, req)
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, "not found", http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}
