package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

// DefaultRedisKey holds the JSON array of tasks.
const DefaultRedisKey = "taskmate:tasks"

// RedisTaskRepository stores the whole collection under a single key.
type RedisTaskRepository struct {
	client *redis.Client
	key    string
}

// NewRedisTaskRepository creates a Redis-backed repository.
func NewRedisTaskRepository(client *redis.Client, key string) *RedisTaskRepository {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisTaskRepository{client: client, key: key}
}

// Load reads the collection. A missing key yields nil, nil.
func (r *RedisTaskRepository) Load(ctx context.Context) ([]task.Task, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return UnmarshalTasks(data)
}

// Save overwrites the key with the encoded collection. No expiry is set.
func (r *RedisTaskRepository) Save(ctx context.Context, tasks []task.Task) error {
	data, err := MarshalTasks(tasks)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
