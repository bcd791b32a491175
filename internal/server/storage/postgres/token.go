package postgres

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken puts token ID on the denylist until expiresAt
func (s *Storage) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`

	if _, err := s.db.ExecContext(ctx, query, jti, expiresAt.UTC()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked reports whether token ID is on the denylist
func (s *Storage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1 AND expires_at > $2)`

	var revoked bool
	if err := s.db.QueryRowContext(ctx, query, jti, time.Now().UTC()).Scan(&revoked); err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}

	return revoked, nil
}

// DeleteExpiredTokens removes all denylist entries expired before now
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
