// Package jwt выпускает и проверяет подписанные access токены (HS256).
//
// Токен самодостаточен: сервер не хранит сессии, а срок жизни проверяется
// при каждом Verify по claim exp. Смена секрета инвалидирует все выданные токены.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken токен поврежден, подписан другим ключом или алгоритмом
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired срок действия токена истек.
	// Оборачивает ErrInvalidToken, поэтому errors.Is(err, ErrInvalidToken) тоже true.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// DefaultTTL время жизни access токена
const DefaultTTL = time.Hour

// Claims представляет JWT claims для нашего приложения
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	gojwt.RegisteredClaims
}

// Service выпускает и валидирует токены.
// Секрет задается один раз при старте и не меняется.
type Service struct {
	now    func() time.Time
	issuer string
	secret []byte
	ttl    time.Duration
}

// Option настраивает Service
type Option func(*Service)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создает сервис токенов.
// secret обязателен; ttl <= 0 означает DefaultTTL.
func NewService(secret []byte, ttl time.Duration, issuer string, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Service{
		now:    time.Now,
		issuer: issuer,
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// TTL возвращает время жизни выпускаемых токенов
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue создает новый подписанный access token.
// Возвращает токен и момент истечения (ровно now + ttl с точностью до секунды).
func (s *Service) Issue(userID, email, username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := gojwt.NewNumericDate(now.Add(s.ttl))

	claims := Claims{
		UserID:   userID,
		Email:    email,
		Username: username,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    s.issuer,
			ExpiresAt: expiresAt,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt.Time, nil
}

// Verify проверяет подпись, алгоритм, издателя и срок действия токена.
// Возвращает ErrTokenExpired для истекших токенов и ErrInvalidToken для всех остальных проблем.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, func(token *gojwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
