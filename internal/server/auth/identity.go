package auth

import (
	"strings"
	"time"
)

// Identity аутентифицированный пользователь, восстановленный из токена.
// Кладется middleware в context запроса.
type Identity struct {
	ExpiresAt time.Time // exp токена, до этого момента держим запись в denylist
	UserID    string
	Email     string
	Username  string
	TokenID   string // jti
}

// DisplayName имя для подписи постов и комментариев
func (i *Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	return i.Email
}

// ParseBearer извлекает токен из значения заголовка Authorization.
// Ожидается формат "Bearer <token>", схема регистронезависима.
func ParseBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrUnauthenticated
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}

	return token, nil
}

// Authorize проверяет, что identity владеет ресурсом ownerID.
// Вызывается до любой мутации чужих данных.
func Authorize(identity *Identity, ownerID string) error {
	if identity == nil || identity.UserID == "" {
		return ErrUnauthenticated
	}
	if ownerID == "" || identity.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}
