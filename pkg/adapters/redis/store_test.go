package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/disbotter/disbotter/pkg/adapters/redis"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunProgramStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))

	p := domain.NewProgram()
	p.Add(domain.File{Path: "commands/a.ts", Code: "a();\n"})
	require.NoError(t, store.Save(context.Background(), "abc", p))

	assert.True(t, mr.Exists("test:abc"))
	raw, err := mr.Get("test:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"files":[{"path":"commands/a.ts","code":"a();\n"}]}`, raw)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	p := domain.NewProgram()
	p.Add(domain.File{Path: "commands/a.ts", Code: "a();\n"})
	require.NoError(t, store.Save(ctx, "ttl", p))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "ttl")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "ttl")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)

	// The index is pruned by wall clock, not by miniredis time.
	time.Sleep(1200 * time.Millisecond)

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
