package models

import "time"

// User представляет учетную запись пользователя блога
type User struct {
	CreatedAt    time.Time `json:"created_at"`         // время регистрации
	ID           string    `json:"id"`                 // UUID пользователя
	Username     string    `json:"username,omitempty"` // опциональный уникальный username
	Email        string    `json:"email"`              // уникальный email, используется для входа
	PasswordHash string    `json:"-"`                  // bcrypt хеш пароля, никогда не отдается клиенту
}

// DisplayName возвращает имя для подписи постов и комментариев
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// RevokedToken запись в denylist отозванных access токенов
type RevokedToken struct {
	ExpiresAt time.Time `json:"expires_at"` // после этого момента запись можно удалить
	JTI       string    `json:"jti"`        // идентификатор токена (claim jti)
}
