package persistence_test

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskmate/internal/chores/infrastructure/persistence"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Failed to ping redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisTaskRepository_Contract(t *testing.T) {
	client := setupRedis(t)
	key := "taskmate:test:" + t.Name()
	_ = client.Del(context.Background(), key).Err()
	t.Cleanup(func() { _ = client.Del(context.Background(), key).Err() })

	exerciseRepository(t, persistence.NewRedisTaskRepository(client, key))
}

func TestNewRedisTaskRepository_DefaultKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	repo := persistence.NewRedisTaskRepository(client, "")
	assert.NotNil(t, repo)
	assert.Equal(t, "taskmate:tasks", persistence.DefaultRedisKey)
}
