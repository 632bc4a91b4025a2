package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx/pkg/adapters/memory"
	"github.com/unimarket/authctx/pkg/domain"
	"github.com/unimarket/authctx/pkg/persistence/middleware"
)

func TestFault_TogglesFailures(t *testing.T) {
	fault := &middleware.Fault{}
	tier := middleware.Chain(memory.NewTier(), fault.Middleware())
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", "v"))

	fault.FailSets(true)
	assert.ErrorIs(t, tier.Set(ctx, "k", "w"), domain.ErrStorageUnavailable)

	got, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got, "failed write must not change the stored value")

	fault.FailAll(true)
	_, err = tier.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorIs(t, tier.Delete(ctx, "k"), domain.ErrStorageUnavailable)

	fault.FailAll(false)
	assert.NoError(t, tier.Delete(ctx, "k"))
}

func TestChain_Order(t *testing.T) {
	key := make([]byte, 32)
	underlying := memory.NewTier()
	fault := &middleware.Fault{}
	tier := middleware.Chain(underlying,
		fault.Middleware(),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", "secret"))
	stored, err := underlying.Get(ctx, "k")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored)

	fault.FailGets(true)
	_, err = tier.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
