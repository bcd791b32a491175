package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophblog/internal/client/storage"
	"github.com/iudanet/gophblog/internal/validation"
	pkgapi "github.com/iudanet/gophblog/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if username != "" {
		if err := validation.ValidateUsername(username); err != nil {
			return err
		}
	}

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	password, err := c.io.ReadPassword("Password (min 6 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	resp, err := c.api.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}

	session, err := c.saveSession(ctx, resp)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", session.UserID)
	c.io.Printf("Signed in as: %s\n", displayName(session))
	return nil
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	resp, err := c.api.Login(ctx, pkgapi.LoginRequest{
		Email:    validation.NormalizeEmail(email),
		Password: password,
	})
	if err != nil {
		return err
	}

	session, err := c.saveSession(ctx, resp)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Signed in as: %s\n", displayName(session))
	c.io.Printf("Token expires: %s\n", session.ExpiresAt.Format(time.RFC3339))
	return nil
}

// runLogout отзывает токен на сервере и удаляет локальную сессию.
// Если сервер недоступен, локальная сессия всё равно удаляется.
func (c *Cli) runLogout(ctx context.Context) error {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.io.Println("Not logged in.")
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	if !session.Expired(c.now()) {
		c.api.SetToken(session.Token)
		if err := c.api.Logout(ctx); err != nil {
			c.io.Printf("Warning: server logout failed: %v\n", err)
		}
	}

	if err := c.sessions.DeleteSession(ctx); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	c.io.Println("✓ Logged out")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'gophblog login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("User:          %s\n", displayName(session))
	c.io.Printf("Email:         %s\n", session.Email)
	if session.Server != "" {
		c.io.Printf("Server:        %s\n", session.Server)
	}
	c.io.Printf("Token expires: %s\n", session.ExpiresAt.Format(time.RFC3339))

	if remaining := session.ExpiresAt.Sub(c.now()); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Token has expired. Please login again.")
	}
	return nil
}

// runWhoami спрашивает сервер, кому принадлежит токен
func (c *Cli) runWhoami(ctx context.Context) error {
	if _, err := c.loadSession(ctx); err != nil {
		return err
	}

	user, err := c.api.Me(ctx)
	if err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Printf("ID:         %s\n", user.ID)
	c.io.Printf("Email:      %s\n", user.Email)
	if user.Username != "" {
		c.io.Printf("Username:   %s\n", user.Username)
	}
	c.io.Printf("Registered: %s\n", user.CreatedAt.Format(time.RFC3339))
	return nil
}

func displayName(s *storage.Session) string {
	if s.Username != "" {
		return s.Username
	}
	return s.Email
}
