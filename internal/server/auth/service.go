// Package auth implements registration, login, token based session
// resolution and the ownership guard on top of the credential store,
// the token service and the password hasher.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/iudanet/gophblog/internal/crypto"
	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/jwt"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/internal/validation"
)

const (
	defaultUserCacheSize = 1024
	defaultUserCacheTTL  = time.Minute
)

// Auth events for Recorder
const (
	EventRegister     = "register"
	EventLogin        = "login"
	EventAuthenticate = "authenticate"
	EventLogout       = "logout"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Recorder receives auth events, implemented by metrics
type Recorder interface {
	RecordAuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthEvent(string, string) {}

// Session результат успешной регистрации или входа
type Session struct {
	ExpiresAt time.Time
	User      *models.User
	Token     string
}

// Service реализует потоки аутентификации
type Service struct {
	logger          *slog.Logger
	users           storage.UserStorage
	denylist        storage.RevokedTokenStorage
	tokens          *jwt.Service
	hasher          *crypto.PasswordHasher
	cache           *lru.LRU[string, *models.User]
	recorder        Recorder
	now             func() time.Time
	cacheSize       int
	cacheTTL        time.Duration
	requireUsername bool
}

// Option настраивает Service
type Option func(*Service)

// WithDenylist включает отзыв токенов при logout.
// Без denylist logout только на стороне клиента.
func WithDenylist(denylist storage.RevokedTokenStorage) Option {
	return func(s *Service) {
		s.denylist = denylist
	}
}

// WithRecorder подключает запись событий (метрики)
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRequireUsername делает username обязательным при регистрации
func WithRequireUsername(required bool) Option {
	return func(s *Service) {
		s.requireUsername = required
	}
}

// WithUserCache задает размер и TTL кеша пользователей для CurrentUser
func WithUserCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создает сервис аутентификации
func NewService(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens *jwt.Service,
	hasher *crypto.PasswordHasher,
	opts ...Option,
) *Service {
	s := &Service{
		logger:    logger,
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		recorder:  nopRecorder{},
		now:       time.Now,
		cacheSize: defaultUserCacheSize,
		cacheTTL:  defaultUserCacheTTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cache = lru.NewLRU[string, *models.User](s.cacheSize, nil, s.cacheTTL)

	return s
}

// TokenTTL время жизни выдаваемых токенов
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Register создает учетную запись и сразу выдает токен
func (s *Service) Register(ctx context.Context, username, email, password string) (*Session, error) {
	session, err := s.register(ctx, username, email, password)
	s.recorder.RecordAuthEvent(EventRegister, outcomeOf(err))
	return session, err
}

func (s *Service) register(ctx context.Context, username, email, password string) (*Session, error) {
	email = validation.NormalizeEmail(email)

	switch {
	case email == "":
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	case password == "":
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	case username == "" && s.requireUsername:
		return nil, fmt.Errorf("%w: username", ErrMissingField)
	}

	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	if username != "" {
		if err := validation.ValidateUsername(username); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidField, err)
		}
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}

	// Быстрая проверка до дорогого bcrypt.
	// Гонку двух регистраций все равно решает UNIQUE индекс в хранилище.
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateCredential
	case !errors.Is(err, storage.ErrUserNotFound):
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, ErrDuplicateCredential
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		slog.String("user_id", user.ID),
	)

	s.cache.Add(user.ID, user)

	return s.issue(user)
}

// Login проверяет email и пароль и выдает токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.login(ctx, email, password)
	s.recorder.RecordAuthEvent(EventLogin, outcomeOf(err))
	return session, err
}

func (s *Service) login(ctx context.Context, email, password string) (*Session, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		// Тратим столько же времени, сколько на настоящую проверку
		if err := s.hasher.VerifyDummy(ctx, password); err != nil && !errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, fmt.Errorf("failed to verify password: %w", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Verify(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	s.cache.Add(user.ID, user)

	return s.issue(user)
}

// Authenticate проверяет токен и denylist и возвращает identity
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	identity, err := s.authenticate(ctx, token)
	s.recorder.RecordAuthEvent(EventAuthenticate, outcomeOf(err))
	return identity, err
}

func (s *Service) authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrExpiredToken, err)
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token denylist: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrInvalidOrExpiredToken)
		}
	}

	identity := &Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

// CurrentUser возвращает актуальную запись пользователя из identity
func (s *Service) CurrentUser(ctx context.Context, identity *Identity) (*models.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	if user, ok := s.cache.Get(identity.UserID); ok {
		return user, nil
	}

	user, err := s.users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	s.cache.Add(user.ID, user)

	return user, nil
}

// Logout отзывает текущий токен до истечения его срока
func (s *Service) Logout(ctx context.Context, identity *Identity) error {
	err := s.logout(ctx, identity)
	s.recorder.RecordAuthEvent(EventLogout, outcomeOf(err))
	return err
}

func (s *Service) logout(ctx context.Context, identity *Identity) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	if s.denylist == nil || identity.TokenID == "" {
		return nil
	}

	if err := s.denylist.RevokeToken(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.InfoContext(ctx, "Token revoked",
		slog.String("user_id", identity.UserID),
	)

	return nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// outcomeOf классифицирует результат для метрик
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrDuplicateCredential),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidOrExpiredToken):
		return OutcomeFailure
	default:
		return OutcomeError
	}
}
