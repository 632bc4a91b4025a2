package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx/pkg/adapters/redis"
	"github.com/unimarket/authctx/pkg/domain"
	"github.com/unimarket/authctx/pkg/ports"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisTier_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunTierContract(t, redis.NewFromClient(client))
}

func TestRedisTier_Prefix(t *testing.T) {
	mr, client := newClient(t)
	tier := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))

	require.NoError(t, tier.Set(context.Background(), domain.KeyToken, "tok"))

	assert.True(t, mr.Exists("custom:app:token"), "Expected key with custom prefix to exist")
	got, err := mr.Get("custom:app:token")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
}

func TestRedisTier_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	tier := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, domain.KeyUser, `{"id":"1"}`))
	mr.FastForward(2 * time.Second)

	_, err := tier.Get(ctx, domain.KeyUser)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestRedisTier_Unavailable(t *testing.T) {
	mr, client := newClient(t)
	tier := redis.NewFromClient(client)
	mr.Close()

	_, err := tier.Get(context.Background(), domain.KeyUser)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorIs(t, tier.Set(context.Background(), domain.KeyUser, "x"), domain.ErrStorageUnavailable)
}
