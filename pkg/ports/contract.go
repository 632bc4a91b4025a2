package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx/pkg/domain"
)

// RunTierContract runs the behaviour every Tier implementation must satisfy.
func RunTierContract(t *testing.T, tier Tier) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, tier.Set(ctx, key, `{"id":"42"}`))

		got, err := tier.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"id":"42"}`, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, tier.Set(ctx, key, "second"))

		got, err := tier.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("Empty Value", func(t *testing.T) {
		require.NoError(t, tier.Set(ctx, key+"-empty", ""))

		got, err := tier.Get(ctx, key+"-empty")
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := tier.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, tier.Delete(ctx, key, key+"-empty", "never-written-"+key))

		_, err := tier.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		_, err = tier.Get(ctx, key+"-empty")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Delete Nothing", func(t *testing.T) {
		assert.NoError(t, tier.Delete(ctx))
	})
}
