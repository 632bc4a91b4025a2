package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx/pkg/domain"
)

func TestPatchFromMap(t *testing.T) {
	p, err := domain.PatchFromMap(map[string]any{
		"fullName":       "Ann",
		"emailConfirmed": "true",
	})
	require.NoError(t, err)

	require.NotNil(t, p.FullName)
	assert.Equal(t, "Ann", *p.FullName)
	require.NotNil(t, p.EmailConfirmed)
	assert.True(t, *p.EmailConfirmed)
	assert.Nil(t, p.Email)
	assert.False(t, p.IsEmpty())
}

func TestPatchFromMap_RejectsUnknownKeys(t *testing.T) {
	_, err := domain.PatchFromMap(map[string]any{"nickname": "x"})
	assert.Error(t, err)
}

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, domain.Patch{}.IsEmpty())
	assert.False(t, domain.Patch{Role: domain.String("")}.IsEmpty())
}
