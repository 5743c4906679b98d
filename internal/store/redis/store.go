package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/homedash/internal/logger"
)

// DefaultTitleTTL is the default TTL for cached media titles
const DefaultTitleTTL = 6 * time.Hour

// TitleClient is the part of the Redis client the title store uses.
type TitleClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Store keeps resolved media titles in Redis so they survive restarts and
// are shared between instances.
type Store struct {
	client TitleClient
	ttl    time.Duration
	logger logger.Logger
}

// NewStore creates a new Redis title store
func NewStore(client TitleClient, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTitleTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// SetTitle stores a resolved title
func (s *Store) SetTitle(ctx context.Context, key, title string) error {
	if err := s.client.Set(ctx, TitleKey(key), title, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache title: %w", err)
	}
	return nil
}

// GetTitle retrieves a cached title, "" on miss
func (s *Store) GetTitle(ctx context.Context, key string) (string, error) {
	title, err := s.client.Get(ctx, TitleKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // Cache miss
		}
		return "", fmt.Errorf("failed to get cached title: %w", err)
	}
	return title, nil
}

// Lookup implements the request manager's title cache. Redis errors count
// as a miss.
func (s *Store) Lookup(ctx context.Context, key string) (string, bool) {
	title, err := s.GetTitle(ctx, key)
	if err != nil {
		s.logger.Warn("title cache lookup failed", logger.String("key", key), logger.Error(err))
		return "", false
	}
	return title, title != ""
}

// Store implements the request manager's title cache. Failures are logged.
func (s *Store) Store(ctx context.Context, key, title string) {
	if title == "" {
		return
	}
	if err := s.SetTitle(ctx, key, title); err != nil {
		s.logger.Warn("title cache store failed", logger.String("key", key), logger.Error(err))
	}
}
