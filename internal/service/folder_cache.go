package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFolderCache stores resolved Drive folder IDs keyed by folder name so
// repeat submissions for the same student skip the Drive lookup.
type RedisFolderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFolderCache wraps a Redis client.
func NewRedisFolderCache(client *redis.Client, ttl time.Duration) *RedisFolderCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisFolderCache{client: client, ttl: ttl}
}

// Get returns the cached folder ID, or "" when absent.
func (c *RedisFolderCache) Get(ctx context.Context, folderName string) (string, error) {
	val, err := c.client.Get(ctx, cacheKey(folderName)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set caches a resolved folder ID.
func (c *RedisFolderCache) Set(ctx context.Context, folderName, folderID string) error {
	return c.client.Set(ctx, cacheKey(folderName), folderID, c.ttl).Err()
}

func cacheKey(folderName string) string {
	return "intake:folder:" + folderName
}
