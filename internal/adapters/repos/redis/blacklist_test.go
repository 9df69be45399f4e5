package redis

import (
	"context"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestBlacklistRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := t.Context()
	repo := NewBlacklistRepo(BlacklistRepoArgs{Client: startRedis(t)})

	require.NoError(t, repo.AddEntry(ctx, "mallory"))
	require.NoError(t, repo.AddEntry(ctx, "bad@example.com"))
	require.NoError(t, repo.AddEntry(ctx, "bad@example.com"))

	blocked, err := repo.IsBlocked(ctx, blacklist.Candidates("7", "MALLORY", "m@example.com")...)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = repo.IsBlocked(ctx, blacklist.Candidates("7", "", "ok@example.com")...)
	require.NoError(t, err)
	assert.False(t, blocked)

	entries, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []blacklist.Entry{"bad@example.com", "mallory"}, entries)

	require.NoError(t, repo.RemoveEntry(ctx, "mallory"))
	blocked, err = repo.IsBlocked(ctx, "mallory")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlacklistRepo_StoreUnavailable(t *testing.T) {
	t.Parallel()

	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	repo := NewBlacklistRepo(BlacklistRepoArgs{Client: rdb})

	_, err := repo.IsBlocked(t.Context(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errorx.NewStoreUnavailable()))

	blocked, err := repo.IsBlocked(t.Context())
	require.NoError(t, err)
	assert.False(t, blocked)
}
