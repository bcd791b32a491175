package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iudanet/gophblog/internal/client/api"
	"github.com/iudanet/gophblog/internal/client/iocli"
	"github.com/iudanet/gophblog/internal/client/storage"
	"github.com/iudanet/gophblog/internal/models"
	pkgapi "github.com/iudanet/gophblog/pkg/api"
)

var (
	// ErrNotLoggedIn нет сохранённой сессии или она истекла
	ErrNotLoggedIn = errors.New("not logged in. Please run 'gophblog login' first")
	// ErrUnknownCommand неизвестная команда
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage неверные аргументы команды
	ErrUsage = errors.New("invalid arguments")
)

// API операции сервера, которые использует CLI.
// *api.Client удовлетворяет этому интерфейсу.
type API interface {
	SetToken(token string)
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.TokenResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	ListPosts(ctx context.Context) ([]*models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	CreatePost(ctx context.Context, req pkgapi.CreatePostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, postID string, req pkgapi.UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	LikePost(ctx context.Context, postID string) (*models.Post, error)
	AddComment(ctx context.Context, postID string, req pkgapi.CommentRequest) (*models.Post, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
}

var _ API = (*api.Client)(nil)

type Cli struct {
	api      API
	sessions storage.SessionStorage
	io       iocli.IO
	now      func() time.Time
	server   string
}

// New создаёт CLI. server сохраняется в сессии для команды status.
func New(apiClient API, sessions storage.SessionStorage, io iocli.IO, server string) *Cli {
	return &Cli{
		api:      apiClient,
		sessions: sessions,
		io:       io,
		now:      time.Now,
		server:   server,
	}
}

// Run выполняет команду. args не включают саму команду.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "posts":
		return c.runListPosts(ctx)
	case "post":
		return c.runShowPost(ctx, args)
	case "publish":
		return c.runPublish(ctx, args)
	case "edit":
		return c.runEdit(ctx, args)
	case "like":
		return c.runLike(ctx, args)
	case "comment":
		return c.runComment(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "delete-comment":
		return c.runDeleteComment(ctx, args)
	case "help":
		PrintUsage(c.io)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// loadSession загружает сессию и передаёт токен API клиенту
func (c *Cli) loadSession(ctx context.Context) (*storage.Session, error) {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Expired(c.now()) {
		return nil, ErrNotLoggedIn
	}

	c.api.SetToken(session.Token)
	return session, nil
}

// optionalSession как loadSession, но без ошибки для анонимного пользователя
func (c *Cli) optionalSession(ctx context.Context) *storage.Session {
	session, err := c.loadSession(ctx)
	if err != nil {
		return nil
	}
	return session
}

// serverError переводит 401 в ErrNotLoggedIn: токен отозван или подпись не подходит
func (c *Cli) serverError(ctx context.Context, err error) error {
	if api.IsStatus(err, http.StatusUnauthorized) {
		_ = c.sessions.DeleteSession(ctx)
		return fmt.Errorf("%w (%v)", ErrNotLoggedIn, err)
	}
	return err
}

func (c *Cli) saveSession(ctx context.Context, resp *pkgapi.TokenResponse) (*storage.Session, error) {
	if resp.User == nil {
		return nil, errors.New("server response has no user")
	}

	session := &storage.Session{
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		Username:  resp.User.Username,
		Token:     resp.Token,
		Server:    c.server,
		ExpiresAt: c.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

func PrintUsage(io iocli.IO) {
	io.Printf("%s", usage)
}
