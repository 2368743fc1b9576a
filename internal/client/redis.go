package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// ErrStatusNotFound is returned when no tool status exists for a request
var ErrStatusNotFound = errors.New("tool status not found")

// RedisInterface stores per-request tool status hashes
type RedisInterface interface {
	// SetHashField sets one field of the request's status hash and refreshes its TTL
	SetHashField(ctx context.Context, requestId, field, value string, ttl time.Duration) error
	// GetHash returns the whole status hash of the request
	GetHash(ctx context.Context, requestId string) (map[string]string, error)
	Close() error
}

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(c config.RedisConfig) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
		}),
	}
}

func statusKey(requestId string) string {
	return types.ToolStatusRedisKeyPrefix + requestId
}

func (r *RedisClient) SetHashField(ctx context.Context, requestId, field, value string, ttl time.Duration) error {
	key := statusKey(requestId)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, value)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set tool status %s: %w", key, err)
	}
	return nil
}

func (r *RedisClient) GetHash(ctx context.Context, requestId string) (map[string]string, error) {
	key := statusKey(requestId)
	values, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get tool status %s: %w", key, err)
	}
	if len(values) == 0 {
		return nil, ErrStatusNotFound
	}
	return values, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
