package session_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/jotter/internal/session"
	"github.com/dukerupert/jotter/internal/session/sessiontest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisStore(t *testing.T) {
	url := startRedis(t)

	sessiontest.Run(t, func(t *testing.T, ttl time.Duration) (session.Store, []int64) {
		client, err := session.NewRedisClient(context.Background(), url)
		require.NoError(t, err)
		require.NoError(t, client.FlushDB(context.Background()).Err())
		t.Cleanup(func() { client.Close() })
		return session.NewRedisStore(client, ttl), []int64{1, 2}
	})
}

func TestNewRedisClientBadURL(t *testing.T) {
	_, err := session.NewRedisClient(context.Background(), "not-a-url")
	require.Error(t, err)
}
