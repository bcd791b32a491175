package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/pkg/api"
)

const maxAuthBodyBytes = 64 << 10

// AuthService операции аутентификации, которые нужны обработчикам
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	CurrentUser(ctx context.Context, identity *auth.Identity) (*models.User, error)
	Logout(ctx context.Context, identity *auth.Identity) error
	TokenTTL() time.Duration
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	service AuthService
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, service AuthService, development bool) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger, development: development},
		service:   service,
	}
}

// Register обрабатывает POST /api/auth/register
// Регистрация нового пользователя, в ответе сразу выдается токен
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := h.decodeJSON(w, r, &req, maxAuthBodyBytes); err != nil {
		h.fail(w, r, err, "decode register request")
		return
	}

	session, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, "register user")
		return
	}

	h.sendJSON(w, h.tokenResponse(session), http.StatusCreated)
}

// Login обрабатывает POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := h.decodeJSON(w, r, &req, maxAuthBodyBytes); err != nil {
		h.fail(w, r, err, "decode login request")
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, "login")
		return
	}

	h.logger.InfoContext(r.Context(), "User logged in", slog.String("user_id", session.User.ID))

	h.sendJSON(w, h.tokenResponse(session), http.StatusOK)
}

// Me обрабатывает GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.fail(w, r, auth.ErrUnauthenticated, "resolve identity")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), identity)
	if err != nil {
		h.fail(w, r, err, "get current user")
		return
	}

	h.sendJSON(w, user, http.StatusOK)
}

// Logout обрабатывает POST /api/auth/logout
// Отзывает текущий токен, если настроен denylist
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.fail(w, r, auth.ErrUnauthenticated, "resolve identity")
		return
	}

	if err := h.service.Logout(r.Context(), identity); err != nil {
		h.fail(w, r, err, "logout")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) tokenResponse(session *auth.Session) api.TokenResponse {
	return api.TokenResponse{
		User:      session.User,
		Token:     session.Token,
		ExpiresIn: int64(h.service.TokenTTL().Seconds()),
	}
}
