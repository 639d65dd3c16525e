// Package session binds opaque tokens to user identities in Redis.
// Expiry is enforced by Redis key TTLs, so an expired token simply
// stops resolving.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces session keys in the shared Redis instance.
const keyPrefix = "auth_"

// Store maps session tokens to user ids with a time-to-live.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("connected to redis", "addr", addr)
	return &Store{rdb: rdb}, nil
}

// Create binds a fresh token to userID for ttl and returns the token.
func (s *Store) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token, err := generateToken(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	key := keyPrefix + token
	if err := s.rdb.Set(ctx, key, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Resolve returns the user id bound to token. An absent or expired token
// yields ok=false, not an error; absence is an expected outcome.
func (s *Store) Resolve(ctx context.Context, token string) (int64, bool, error) {
	val, err := s.rdb.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt session value %q: %w", val, err)
	}
	return userID, true, nil
}

// Revoke deletes the session bound to token. Revoking an absent token is
// a no-op.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// HealthCheck verifies the Redis connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// generateToken produces a cryptographically secure, URL-safe random string.
func generateToken(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
