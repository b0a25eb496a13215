package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache is a Redis read-through cache for full quiz documents. Game starts
// and every answer check read the quiz, so the hot quiz stays out of
// Postgres while a game runs.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(id uuid.UUID) string {
	return "quizcache:" + id.String()
}

// Get returns the cached quiz, or nil on a miss. Cache errors degrade to a
// miss so a Redis hiccup never blocks a game start.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*Quiz, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var q Quiz
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Set stores the quiz under its id with the configured TTL.
func (c *Cache) Set(ctx context.Context, q Quiz) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(q.ID), data, c.ttl).Err()
}

// Invalidate drops the cached copy. Called on quiz deletion so a stale quiz
// cannot be started after it was removed.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
