package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stash/internal/auth"
	"stash/internal/database"
)

// UserService handles registration and identity lookups.
type UserService struct {
	users    Users
	sessions Sessions
	tasks    Tasks
}

// NewUserService creates a new user service.
func NewUserService(users Users, sessions Sessions, tasks Tasks) *UserService {
	return &UserService{users: users, sessions: sessions, tasks: tasks}
}

// Register creates a new account and enqueues the welcome job.
func (s *UserService) Register(ctx context.Context, email, password string) (*database.User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &database.User{Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// Registration already succeeded; a lost welcome job is only a log line.
	if err := s.tasks.EnqueueWelcome(ctx, u.ID); err != nil {
		slog.Error("failed to enqueue welcome job", "user_id", u.ID, "error", err)
	}

	slog.Info("user registered", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// Me resolves a session token to the authenticated user.
func (s *UserService) Me(ctx context.Context, token string) (*database.User, error) {
	userID, err := resolveToken(ctx, s.sessions, token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	return u, err
}

// resolveToken maps a session token to a user id, treating absence of any
// kind as Unauthorized.
func resolveToken(ctx context.Context, sessions Sessions, token string) (int64, error) {
	if token == "" {
		return 0, ErrUnauthorized
	}
	userID, ok, err := sessions.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnauthorized
	}
	return userID, nil
}
