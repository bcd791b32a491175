// Package boltdb implements the access token denylist in an embedded
// BoltDB file. Each entry maps token ID to its expiration time.
package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// bucketRevoked BoltDB bucket для отозванных токенов
var bucketRevoked = []byte("revoked_tokens")

// Storage represents BoltDB denylist implementation
type Storage struct {
	db  *bbolt.DB
	now func() time.Time
}

// New opens (or creates) BoltDB file at dbPath
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Timeout чтобы не висеть на файловой блокировке другого процесса
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db, now: time.Now}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database file
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRevoked); err != nil {
			return fmt.Errorf("failed to create revoked tokens bucket: %w", err)
		}
		return nil
	})
}

// RevokeToken puts token ID on the denylist until expiresAt
func (s *Storage) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked tokens bucket not found")
		}

		if err := bucket.Put([]byte(jti), encodeExpiry(expiresAt)); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}

		return nil
	})
}

// IsTokenRevoked reports whether token ID is on the denylist
func (s *Storage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked tokens bucket not found")
		}

		data := bucket.Get([]byte(jti))
		if data == nil {
			return nil
		}

		expiresAt, err := decodeExpiry(data)
		if err != nil {
			return err
		}
		revoked = expiresAt.After(s.now())

		return nil
	})

	if err != nil {
		return false, err
	}

	return revoked, nil
}

// DeleteExpiredTokens removes all entries expired before now
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	deleted := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked tokens bucket not found")
		}

		// Удалять во время итерации курсором нельзя, сначала собираем ключи
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			expiresAt, err := decodeExpiry(v)
			if err != nil || !expiresAt.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("failed to delete token: %w", err)
			}
		}
		deleted = len(expired)

		return nil
	})

	if err != nil {
		return 0, err
	}

	return deleted, nil
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(data []byte) (time.Time, error) {
	if len(data) != 8 {
		return time.Time{}, fmt.Errorf("invalid expiry value length %d", len(data))
	}
	return time.Unix(int64(binary.BigEndian.Uint64(data)), 0), nil
}
