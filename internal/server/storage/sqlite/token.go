package sqlite

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken puts token ID on the denylist until expiresAt
func (s *Storage) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES (?, ?)
		ON CONFLICT (jti) DO UPDATE SET expires_at = excluded.expires_at
	`

	if _, err := s.db.ExecContext(ctx, query, jti, expiresAt.Unix()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked reports whether token ID is on the denylist
func (s *Storage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ? AND expires_at > ?)`

	var revoked bool
	if err := s.db.QueryRowContext(ctx, query, jti, time.Now().Unix()).Scan(&revoked); err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}

	return revoked, nil
}

// DeleteExpiredTokens removes all denylist entries expired before now
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at <= ?`

	result, err := s.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
