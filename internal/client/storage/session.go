package storage

import (
	"context"
	"time"
)

// SessionStorage хранит текущую сессию пользователя на клиенте.
type SessionStorage interface {
	// SaveSession заменяет сохранённую сессию
	SaveSession(ctx context.Context, session *Session) error

	// GetSession возвращает ErrSessionNotFound, если пользователь не входил
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession удаляет сессию (logout)
	DeleteSession(ctx context.Context) error
}

// Session represents a logged-in user as seen by the CLI.
type Session struct {
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Token     string    `json:"token"`
	Server    string    `json:"server"`
}

// Expired reports whether the token lifetime has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
