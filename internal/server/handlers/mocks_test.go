package handlers

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/storage"
)

func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// mockAuthService is a mock implementation of AuthService for testing
type mockAuthService struct {
	register    func(ctx context.Context, username, email, password string) (*auth.Session, error)
	login       func(ctx context.Context, email, password string) (*auth.Session, error)
	currentUser func(ctx context.Context, identity *auth.Identity) (*models.User, error)
	logout      func(ctx context.Context, identity *auth.Identity) error
	ttl         time.Duration
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*auth.Session, error) {
	return m.register(ctx, username, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return m.login(ctx, email, password)
}

func (m *mockAuthService) CurrentUser(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	return m.currentUser(ctx, identity)
}

func (m *mockAuthService) Logout(ctx context.Context, identity *auth.Identity) error {
	if m.logout == nil {
		return nil
	}
	return m.logout(ctx, identity)
}

func (m *mockAuthService) TokenTTL() time.Duration {
	return m.ttl
}

// mockPostStorage is an in-memory implementation of PostStorage for testing
type mockPostStorage struct {
	mu       sync.Mutex
	posts    map[string]*models.Post
	comments map[string]*models.Comment
	err      error // returned by every method when set
}

func newMockPostStorage() *mockPostStorage {
	return &mockPostStorage{
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
	}
}

func (m *mockPostStorage) CreatePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	stored := *post
	stored.Comments = nil
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockPostStorage) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.getPost(postID)
}

func (m *mockPostStorage) getPost(postID string) (*models.Post, error) {
	stored, ok := m.posts[postID]
	if !ok {
		return nil, storage.ErrPostNotFound
	}

	post := *stored
	post.Comments = []*models.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			comment := *c
			post.Comments = append(post.Comments, &comment)
		}
	}
	sort.Slice(post.Comments, func(i, j int) bool {
		return post.Comments[i].Date.Before(post.Comments[j].Date)
	})
	return &post, nil
}

func (m *mockPostStorage) ListPosts(ctx context.Context, viewerID string) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var result []*models.Post
	for id, p := range m.posts {
		if p.Status != models.PostStatusPublished && (viewerID == "" || p.AuthorID != viewerID) {
			continue
		}
		post, _ := m.getPost(id)
		result = append(result, post)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockPostStorage) UpdatePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	stored, ok := m.posts[post.ID]
	if !ok {
		return storage.ErrPostNotFound
	}
	updated := *post
	updated.AuthorID = stored.AuthorID
	updated.Likes = stored.Likes
	updated.Comments = nil
	m.posts[post.ID] = &updated
	return nil
}

func (m *mockPostStorage) DeletePost(ctx context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[postID]; !ok {
		return storage.ErrPostNotFound
	}
	delete(m.posts, postID)
	for id, c := range m.comments {
		if c.PostID == postID {
			delete(m.comments, id)
		}
	}
	return nil
}

func (m *mockPostStorage) IncrementLikes(ctx context.Context, postID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	post, ok := m.posts[postID]
	if !ok {
		return 0, storage.ErrPostNotFound
	}
	post.Likes++
	return post.Likes, nil
}

func (m *mockPostStorage) AddComment(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[comment.PostID]; !ok {
		return storage.ErrPostNotFound
	}
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *mockPostStorage) GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.comments[commentID]
	if !ok || c.PostID != postID {
		return nil, storage.ErrCommentNotFound
	}
	comment := *c
	return &comment, nil
}

func (m *mockPostStorage) DeleteComment(ctx context.Context, postID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.comments[commentID]
	if !ok || c.PostID != postID {
		return storage.ErrCommentNotFound
	}
	delete(m.comments, commentID)
	return nil
}

// mockPinger is a mock implementation of storage.Pinger
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}
