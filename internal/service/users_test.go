package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stash/internal/auth"
	"stash/internal/database"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user with a hashed password", func(t *testing.T) {
		meta := newFakeMeta()
		tasks := &fakeTasks{}
		svc := NewUserService(meta, newFakeSessions(), tasks)

		u, err := svc.Register(ctx, "bob@test.io", "s3cret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID == 0 {
			t.Error("expected a generated id")
		}
		if u.PasswordHash == "s3cret" {
			t.Error("password must not be stored in plaintext")
		}
		if !auth.CheckPassword("s3cret", u.PasswordHash) {
			t.Error("stored digest does not verify the password")
		}
		if len(tasks.welcomes) != 1 || tasks.welcomes[0] != u.ID {
			t.Errorf("expected one welcome job for user %d, got %v", u.ID, tasks.welcomes)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc := NewUserService(newFakeMeta(), newFakeSessions(), &fakeTasks{})

		if _, err := svc.Register(ctx, "", "pw"); !errors.Is(err, ErrMissingEmail) {
			t.Errorf("expected ErrMissingEmail, got %v", err)
		}
		if _, err := svc.Register(ctx, "a@b.c", ""); !errors.Is(err, ErrMissingPassword) {
			t.Errorf("expected ErrMissingPassword, got %v", err)
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc := NewUserService(newFakeMeta(), newFakeSessions(), &fakeTasks{})

		if _, err := svc.Register(ctx, "bob@test.io", "pw"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.Register(ctx, "bob@test.io", "pw2"); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	meta := newFakeMeta()
	sessions := newFakeSessions()
	svc := NewUserService(meta, sessions, &fakeTasks{})

	u := &database.User{Email: "bob@test.io", PasswordHash: "x"}
	if err := meta.CreateUser(ctx, u); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token, _ := sessions.Create(ctx, u.ID, time.Hour)

	t.Run("resolves a valid token", func(t *testing.T) {
		got, err := svc.Me(ctx, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Email != "bob@test.io" {
			t.Errorf("expected bob@test.io, got %s", got.Email)
		}
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		if _, err := svc.Me(ctx, ""); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects a revoked token", func(t *testing.T) {
		if err := sessions.Revoke(ctx, token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.Me(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	meta := newFakeMeta()
	sessions := newFakeSessions()
	users := NewUserService(meta, sessions, &fakeTasks{})
	authSvc := NewAuthService(meta, sessions, time.Hour)

	if _, err := users.Register(ctx, "bob@test.io", "s3cret"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	t.Run("valid credentials yield a token", func(t *testing.T) {
		token, err := authSvc.Login(ctx, "bob@test.io", "s3cret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token == "" {
			t.Fatal("expected a token")
		}
		if _, err := users.Me(ctx, token); err != nil {
			t.Errorf("token does not resolve: %v", err)
		}
	})

	t.Run("wrong password and unknown account look the same", func(t *testing.T) {
		_, badPw := authSvc.Login(ctx, "bob@test.io", "nope")
		_, badUser := authSvc.Login(ctx, "ghost@test.io", "s3cret")
		if !errors.Is(badPw, ErrUnauthorized) || !errors.Is(badUser, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized for both, got %v and %v", badPw, badUser)
		}
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		token, err := authSvc.Login(ctx, "bob@test.io", "s3cret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := authSvc.Logout(ctx, token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := users.Me(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected revoked token to be rejected, got %v", err)
		}
		if err := authSvc.Logout(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected second logout to be unauthorized, got %v", err)
		}
	})
}
