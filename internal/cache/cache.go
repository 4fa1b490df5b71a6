package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StatusCache met en cache les réponses de statut des jobs terminaux.
// Un état terminal est immuable, une lecture en cache reste donc cohérente.
// Implementations must be safe for concurrent use.
type StatusCache interface {
	GetStatus(ctx context.Context, jobID uuid.UUID) (*models.StatusResponse, bool, error)
	SetStatus(ctx context.Context, jobID uuid.UUID, resp *models.StatusResponse, ttl time.Duration) error
	DeleteStatus(ctx context.Context, jobID uuid.UUID) error
	Ping(ctx context.Context) error
}

// RedisCache implémente StatusCache avec go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache crée un RedisCache depuis une URL Redis.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) GetStatus(ctx context.Context, jobID uuid.UUID) (*models.StatusResponse, bool, error) {
	val, err := c.client.Get(ctx, statusKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp models.StatusResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisCache) SetStatus(ctx context.Context, jobID uuid.UUID, resp *models.StatusResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(jobID), data, ttl).Err()
}

// DeleteStatus est appelé quand le job est balayé par la rétention: son
// statut caché ne doit pas survivre à la suppression du job.
func (c *RedisCache) DeleteStatus(ctx context.Context, jobID uuid.UUID) error {
	return c.client.Del(ctx, statusKey(jobID)).Err()
}

func statusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:status:%s", jobID)
}
