package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stash/internal/auth"
	"stash/internal/database"
)

// AuthService issues and revokes session tokens.
type AuthService struct {
	users    Users
	sessions Sessions
	ttl      time.Duration
}

// NewAuthService creates a new auth service. Sessions expire after ttl.
func NewAuthService(users Users, sessions Sessions, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl}
}

// Login verifies credentials and returns a fresh session token. A missing
// account and a wrong password are deliberately indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, database.ErrUserNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", err
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return "", ErrUnauthorized
	}

	token, err := s.sessions.Create(ctx, u.ID, s.ttl)
	if err != nil {
		return "", err
	}

	slog.Info("session created", "user_id", u.ID)
	return token, nil
}

// Logout revokes the session bound to token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	userID, err := resolveToken(ctx, s.sessions, token)
	if err != nil {
		return err
	}

	if err := s.sessions.Revoke(ctx, token); err != nil {
		return err
	}

	slog.Info("session revoked", "user_id", userID)
	return nil
}
