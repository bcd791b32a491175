package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		user *models.User
		name string
	}{
		{
			name: "create user with username",
			user: &models.User{
				ID:           uuid.New().String(),
				Username:     "alice",
				Email:        "alice@x.com",
				PasswordHash: "hash123",
				CreatedAt:    time.Now(),
			},
		},
		{
			name: "create user without username",
			user: &models.User{
				ID:           uuid.New().String(),
				Email:        "bob@x.com",
				PasswordHash: "hash456",
				CreatedAt:    time.Now(),
			},
		},
		{
			name: "second user without username does not collide",
			user: &models.User{
				ID:           uuid.New().String(),
				Email:        "carol@x.com",
				PasswordHash: "hash789",
				CreatedAt:    time.Now(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.CreateUser(ctx, tt.user))

			retrieved, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, retrieved.ID)
			assert.Equal(t, tt.user.Username, retrieved.Username)
			assert.Equal(t, tt.user.Email, retrieved.Email)
			assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
			assert.WithinDuration(t, tt.user.CreatedAt, retrieved.CreatedAt, time.Second)
		})
	}
}

func TestUserStorage_CreateUser_Duplicates(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, &models.User{
		ID:           uuid.New().String(),
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}))

	tests := []struct {
		user *models.User
		name string
	}{
		{
			name: "duplicate email",
			user: &models.User{
				ID:           uuid.New().String(),
				Username:     "other",
				Email:        "alice@x.com",
				PasswordHash: "hash",
				CreatedAt:    time.Now(),
			},
		},
		{
			name: "duplicate username",
			user: &models.User{
				ID:           uuid.New().String(),
				Username:     "alice",
				Email:        "other@x.com",
				PasswordHash: "hash",
				CreatedAt:    time.Now(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)

			_, err = s.GetUserByID(ctx, tt.user.ID)
			assert.ErrorIs(t, err, storage.ErrUserNotFound)
		})
	}
}

func TestUserStorage_CreateUser_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	const workers = 16

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateUser(ctx, &models.User{
				ID:           uuid.New().String(),
				Email:        "race@x.com",
				PasswordHash: "hash",
				CreatedAt:    time.Now(),
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, storage.ErrUserAlreadyExists):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, dupes)
}

func TestUserStorage_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s)

	tests := []struct {
		wantErr error
		name    string
		email   string
	}{
		{
			name:  "existing user",
			email: user.Email,
		},
		{
			name:    "unknown email",
			email:   "nobody@x.com",
			wantErr: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetUserByEmail(ctx, tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, user.Username, got.Username)
		})
	}
}

func TestUserStorage_GetUserByID_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
