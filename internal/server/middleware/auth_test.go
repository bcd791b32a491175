package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophblog/internal/server/auth"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// stubAuthenticator принимает только заранее известные токены
type stubAuthenticator struct {
	identities map[string]*auth.Identity
	err        error
	calls      int
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	identity, ok := s.identities[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", auth.ErrInvalidOrExpiredToken)
	}
	return identity, nil
}

func newStubAuthenticator() *stubAuthenticator {
	return &stubAuthenticator{
		identities: map[string]*auth.Identity{
			"good-token": {UserID: "user123", Email: "a@x.com", Username: "testuser", TokenID: "jti-1"},
		},
	}
}

// testHandler is a simple handler that checks context values
func testHandler(t *testing.T, expectedUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		require.True(t, ok, "identity should be in context")
		assert.Equal(t, expectedUserID, identity.UserID)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	authenticator := newStubAuthenticator()
	handler := AuthMiddleware(setupTestLogger(), authenticator)(testHandler(t, "user123"))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, 1, authenticator.calls)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		expectedBody string
		authCalled   bool
	}{
		{
			name:         "missing header",
			header:       "",
			expectedBody: auth.ErrUnauthenticated.Error(),
		},
		{
			name:         "basic scheme",
			header:       "Basic dXNlcjpwYXNz",
			expectedBody: auth.ErrUnauthenticated.Error(),
		},
		{
			name:         "token without scheme",
			header:       "good-token",
			expectedBody: auth.ErrUnauthenticated.Error(),
		},
		{
			name:         "unknown token",
			header:       "Bearer forged-token",
			expectedBody: auth.ErrInvalidOrExpiredToken.Error(),
			authCalled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticator := newStubAuthenticator()
			nextCalled := false
			handler := AuthMiddleware(setupTestLogger(), authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			assert.False(t, nextCalled, "handler must not run without valid token")
			assert.Equal(t, tt.authCalled, authenticator.calls > 0)
		})
	}
}

func TestAuthMiddleware_BackendFailure(t *testing.T) {
	authenticator := newStubAuthenticator()
	authenticator.err = errors.New("denylist unavailable")

	handler := AuthMiddleware(setupTestLogger(), authenticator)(testHandler(t, "user123"))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "denylist unavailable")
}

func TestOptionalAuthMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		wantIdentity bool
	}{
		{name: "valid token", header: "Bearer good-token", wantIdentity: true},
		{name: "no header", header: ""},
		{name: "invalid token", header: "Bearer forged-token"},
		{name: "malformed header", header: "Token abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIdentity bool
			handler := OptionalAuthMiddleware(setupTestLogger(), newStubAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, gotIdentity = auth.IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/posts/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantIdentity, gotIdentity)
		})
	}
}
