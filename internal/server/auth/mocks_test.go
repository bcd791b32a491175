package auth

import (
	"context"
	"sync"
	"time"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users        map[string]*models.User // email -> User
	createError  error
	getUserError error
	getByIDCalls int
	mu           sync.Mutex
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Email]; exists {
		return storage.ErrUserAlreadyExists
	}
	for _, u := range m.users {
		if user.Username != "" && u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getUserError != nil {
		return nil, m.getUserError
	}
	user, ok := m.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getByIDCalls++
	if m.getUserError != nil {
		return nil, m.getUserError
	}
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// mockDenylist is a mock implementation of RevokedTokenStorage for testing
type mockDenylist struct {
	revoked    map[string]time.Time
	checkError error
}

func newMockDenylist() *mockDenylist {
	return &mockDenylist{revoked: make(map[string]time.Time)}
}

func (m *mockDenylist) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	m.revoked[jti] = expiresAt
	return nil
}

func (m *mockDenylist) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if m.checkError != nil {
		return false, m.checkError
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *mockDenylist) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (m *mockDenylist) Close() error {
	return nil
}

// recorderStub собирает события аутентификации
type recorderStub struct {
	events []string
	mu     sync.Mutex
}

func (r *recorderStub) RecordAuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+outcome)
}
