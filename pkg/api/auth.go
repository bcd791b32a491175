package api

import "github.com/iudanet/gophblog/internal/models"

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username string `json:"username,omitempty"` // опциональный username
	Email    string `json:"email"`              // email, используется как логин
	Password string `json:"password"`           // пароль в открытом виде, хешируется на сервере
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse представляет ответ с токеном доступа
type TokenResponse struct {
	User      *models.User `json:"user,omitempty"` // пользователь без хеша пароля
	Token     string       `json:"token"`          // JWT access token
	ExpiresIn int64        `json:"expires_in"`     // время жизни токена в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Details string `json:"details,omitempty"` // подробности, только в development окружении
}
