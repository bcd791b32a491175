package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iudanet/gophblog/internal/client/iocli"
	"github.com/iudanet/gophblog/internal/client/storage"
	"github.com/iudanet/gophblog/internal/models"
	pkgapi "github.com/iudanet/gophblog/pkg/api"
)

// mockAPI заглушка сервера, незаданные функции паникуют
type mockAPI struct {
	RegisterFunc      func(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.TokenResponse, error)
	LoginFunc         func(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error)
	MeFunc            func(ctx context.Context) (*models.User, error)
	LogoutFunc        func(ctx context.Context) error
	ListPostsFunc     func(ctx context.Context) ([]*models.Post, error)
	GetPostFunc       func(ctx context.Context, postID string) (*models.Post, error)
	CreatePostFunc    func(ctx context.Context, req pkgapi.CreatePostRequest) (*models.Post, error)
	UpdatePostFunc    func(ctx context.Context, postID string, req pkgapi.UpdatePostRequest) (*models.Post, error)
	DeletePostFunc    func(ctx context.Context, postID string) error
	LikePostFunc      func(ctx context.Context, postID string) (*models.Post, error)
	AddCommentFunc    func(ctx context.Context, postID string, req pkgapi.CommentRequest) (*models.Post, error)
	DeleteCommentFunc func(ctx context.Context, postID, commentID string) error

	token string
}

func (m *mockAPI) SetToken(token string) { m.token = token }

func (m *mockAPI) Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.TokenResponse, error) {
	return m.RegisterFunc(ctx, req)
}

func (m *mockAPI) Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error) {
	return m.LoginFunc(ctx, req)
}

func (m *mockAPI) Me(ctx context.Context) (*models.User, error) {
	return m.MeFunc(ctx)
}

func (m *mockAPI) Logout(ctx context.Context) error {
	return m.LogoutFunc(ctx)
}

func (m *mockAPI) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return m.ListPostsFunc(ctx)
}

func (m *mockAPI) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return m.GetPostFunc(ctx, postID)
}

func (m *mockAPI) CreatePost(ctx context.Context, req pkgapi.CreatePostRequest) (*models.Post, error) {
	return m.CreatePostFunc(ctx, req)
}

func (m *mockAPI) UpdatePost(ctx context.Context, postID string, req pkgapi.UpdatePostRequest) (*models.Post, error) {
	return m.UpdatePostFunc(ctx, postID, req)
}

func (m *mockAPI) DeletePost(ctx context.Context, postID string) error {
	return m.DeletePostFunc(ctx, postID)
}

func (m *mockAPI) LikePost(ctx context.Context, postID string) (*models.Post, error) {
	return m.LikePostFunc(ctx, postID)
}

func (m *mockAPI) AddComment(ctx context.Context, postID string, req pkgapi.CommentRequest) (*models.Post, error) {
	return m.AddCommentFunc(ctx, postID, req)
}

func (m *mockAPI) DeleteComment(ctx context.Context, postID, commentID string) error {
	return m.DeleteCommentFunc(ctx, postID, commentID)
}

// memSessions in-memory SessionStorage
type memSessions struct {
	session *storage.Session
	mu      sync.Mutex
}

func (m *memSessions) SaveSession(_ context.Context, s *storage.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.session = &cp
	return nil
}

func (m *memSessions) GetSession(_ context.Context) (*storage.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, storage.ErrSessionNotFound
	}
	cp := *m.session
	return &cp, nil
}

func (m *memSessions) DeleteSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return storage.ErrSessionNotFound
	}
	m.session = nil
	return nil
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestCli собирает Cli с вводом input и буфером вывода
func newTestCli(t *testing.T, apiMock *mockAPI, sessions *memSessions, input string) (*Cli, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	c := New(apiMock, sessions, iocli.New(strings.NewReader(input), &out), "http://blog.test")
	c.now = func() time.Time { return testNow }
	return c, &out
}

// loggedIn возвращает хранилище с действующей сессией alice
func loggedIn() *memSessions {
	return &memSessions{session: &storage.Session{
		UserID:    "user-1",
		Email:     "a@x.com",
		Username:  "alice",
		Token:     "token-123",
		Server:    "http://blog.test",
		ExpiresAt: testNow.Add(time.Hour),
	}}
}
