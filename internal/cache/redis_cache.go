package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mookzZ/fast-websockets/internal/config"
	"github.com/mookzZ/fast-websockets/internal/domain"
)

// RedisMessageCache caches chat history in redis with a bounded TTL.
type RedisMessageCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMessageCache connects to redis and verifies the connection.
func NewRedisMessageCache(cfg config.RedisConfig) (*RedisMessageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMessageCache{
		client: client,
		prefix: cfg.CachePrefix,
		ttl:    cfg.CacheTTL,
	}, nil
}

func (c *RedisMessageCache) key(chatID int64) string {
	return fmt.Sprintf("%s:%d", c.prefix, chatID)
}

func (c *RedisMessageCache) GetMessages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	data, err := c.client.Get(ctx, c.key(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return messages, nil
}

func (c *RedisMessageCache) SetMessages(ctx context.Context, chatID int64, messages []domain.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.key(chatID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Invalidate drops the cached page for a chat. Called whenever a new
// message persists so the next history read is fresh.
func (c *RedisMessageCache) Invalidate(ctx context.Context, chatID int64) error {
	return c.client.Del(ctx, c.key(chatID)).Err()
}

func (c *RedisMessageCache) Close() error {
	return c.client.Close()
}
