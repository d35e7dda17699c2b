// Package cache holds the Redis-backed token denylist. Every method is a
// no-op on a nil *Store so the server keeps running without Redis.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"voyage-backend/internal/config"
	"voyage-backend/internal/logger"
)

const revokedKeyPrefix = "auth:revoked:"

type Store struct {
	client *redis.Client
}

// Connect opens and pings Redis. On failure the client is closed and a nil
// store is returned with the error, which callers log and ignore.
func Connect(cfg *config.Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Store{client: client}, nil
}

// NewStore wraps an existing client
func NewStore(client *redis.Client) *Store {
	if client == nil {
		return nil
	}
	return &Store{client: client}
}

func revokedKey(jti string) string {
	return revokedKeyPrefix + jti
}

// RevokeToken denylists jti until the token would have expired anyway.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if s == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti was logged out. Redis errors count as not
// revoked.
func (s *Store) IsRevoked(ctx context.Context, jti string) bool {
	if s == nil || jti == "" {
		return false
	}
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		logger.Component("cache").Warn().Err(err).Msg("denylist lookup failed")
		return false
	}
	return n > 0
}

// IsHealthy returns true if the Redis connection is working
func (s *Store) IsHealthy(ctx context.Context) bool {
	if s == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err() == nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
