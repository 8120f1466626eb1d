package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisIntegration exercises the mirror lock against a real Redis container
func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	lock := NewRedis(client, 2*time.Second, 100*time.Millisecond, logger.NewLoggerTo(io.Discard))

	release, err := lock.Acquire(ctx, models.EventTypeBug, "BUG-42")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, models.EventTypeBug, "BUG-42")
	assert.ErrorIs(t, err, ErrLockBusy)

	release()

	locked, err := lock.IsReferenceLocked(ctx, models.EventTypeBug, "BUG-42")
	require.NoError(t, err)
	assert.False(t, locked)
}
