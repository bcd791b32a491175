package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), filepath.Join(t.TempDir(), "denylist.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestNew_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketRevoked) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestRevokeToken(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	require.NoError(t, store.RevokeToken(ctx, "active", time.Now().Add(time.Hour)))
	require.NoError(t, store.RevokeToken(ctx, "stale", time.Now().Add(-time.Hour)))

	tests := []struct {
		name string
		jti  string
		want bool
	}{
		{name: "revoked token", jti: "active", want: true},
		{name: "entry past expiration", jti: "stale", want: false},
		{name: "unknown token", jti: "unknown", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revoked, err := store.IsTokenRevoked(ctx, tt.jti)
			require.NoError(t, err)
			assert.Equal(t, tt.want, revoked)
		})
	}
}

func TestRevokeToken_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	exp := time.Now().Add(time.Hour)
	require.NoError(t, store.RevokeToken(ctx, "jti", exp))
	require.NoError(t, store.RevokeToken(ctx, "jti", exp))

	revoked, err := store.IsTokenRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestDeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	now := time.Now()
	require.NoError(t, store.RevokeToken(ctx, "a", now.Add(-2*time.Minute)))
	require.NoError(t, store.RevokeToken(ctx, "b", now.Add(-time.Minute)))
	require.NoError(t, store.RevokeToken(ctx, "c", now.Add(time.Hour)))

	// Битое значение тоже считается мусором
	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRevoked).Put([]byte("broken"), []byte{1, 2})
	}))

	deleted, err := store.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	deleted, err = store.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	revoked, err := store.IsTokenRevoked(ctx, "c")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestIsTokenRevoked_Clock(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.RevokeToken(ctx, "jti", now.Add(time.Minute)))

	revoked, err := store.IsTokenRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)

	store.now = func() time.Time { return now.Add(2 * time.Minute) }

	revoked, err = store.IsTokenRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
