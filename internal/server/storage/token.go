package storage

import (
	"context"
	"time"
)

// RevokedTokenStorage defines interface for the access token denylist.
// Entries are keyed by token ID (jti) and become meaningless after the
// token's own expiration.
type RevokedTokenStorage interface {
	// RevokeToken puts token ID on the denylist until expiresAt
	// Revoking the same token twice is not an error
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error

	// IsTokenRevoked reports whether token ID is on the denylist
	// Entries past their expiration are reported as not revoked
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)

	// DeleteExpiredTokens removes all entries past their expiration
	// Returns number of deleted entries
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)

	// Close releases underlying resources
	Close() error
}

// Pinger is implemented by storages that can report their availability
type Pinger interface {
	Ping(ctx context.Context) error
}
