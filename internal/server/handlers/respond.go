package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/pkg/api"
)

// DefaultMaxBodyBytes лимит тела запроса по умолчанию (12 MiB, с запасом под base64 изображение)
const DefaultMaxBodyBytes = 12 << 20

var (
	errInvalidBody   = errors.New("invalid request body")
	errBodyTooLarge  = errors.New("request body too large")
	errInternalError = errors.New("internal server error")
	errInvalidStatus = errors.New("status must be draft or published")
)

// responder общая часть обработчиков: логирование и запись JSON ответов
type responder struct {
	logger      *slog.Logger
	development bool
}

// sendJSON отправляет JSON ответ
func (h *responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Error: message}, statusCode)
}

// fail переводит ошибку сервисного слоя в HTTP ответ.
// Текст внутренних ошибок уходит клиенту только в development окружении.
func (h *responder) fail(w http.ResponseWriter, r *http.Request, err error, action string) {
	ctx := r.Context()
	status := statusFor(err)

	switch {
	case status >= http.StatusInternalServerError:
		h.logger.ErrorContext(ctx, "Failed to "+action,
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		resp := api.ErrorResponse{Error: errInternalError.Error()}
		if h.development {
			resp.Details = err.Error()
		}
		h.sendJSON(w, resp, status)
	case status == http.StatusUnauthorized:
		h.logger.WarnContext(ctx, "Unauthenticated request", slog.String("path", r.URL.Path))
		if errors.Is(err, auth.ErrInvalidOrExpiredToken) {
			h.sendError(w, auth.ErrInvalidOrExpiredToken.Error(), status)
			return
		}
		h.sendError(w, auth.ErrUnauthenticated.Error(), status)
	default:
		h.logger.DebugContext(ctx, "Request rejected",
			slog.String("action", action),
			slog.Int("status", status),
			slog.Any("error", err),
		)
		h.sendError(w, err.Error(), status)
	}
}

// decodeJSON читает тело запроса с ограничением размера
func (h *responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return errInvalidBody
	}
	return nil
}

// statusFor сопоставляет ошибку с HTTP статусом
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidBody),
		errors.Is(err, auth.ErrMissingField),
		errors.Is(err, auth.ErrInvalidField),
		errors.Is(err, auth.ErrDuplicateCredential),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidOrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrPostNotFound),
		errors.Is(err, storage.ErrCommentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// validID проверяет, что идентификатор из пути является UUID.
// Иначе postgres отвечает ошибкой типа вместо "не найдено".
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
