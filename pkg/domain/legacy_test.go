package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx/pkg/domain"
)

func TestLegacyFields_Reconstruct(t *testing.T) {
	fields := domain.LegacyFields{
		UserID:       "42",
		UserEmail:    "a@b.com",
		UserFullName: "Ann",
	}

	s, err := fields.Reconstruct("tok-1")
	require.NoError(t, err)
	assert.Equal(t, "42", s.ID)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, domain.DefaultRole, s.Role)
}

func TestLegacyFields_FailClosed(t *testing.T) {
	tests := []struct {
		name   string
		fields domain.LegacyFields
		token  string
	}{
		{"no token", domain.LegacyFields{UserID: "42", UserEmail: "a@b.com"}, ""},
		{"no id", domain.LegacyFields{UserEmail: "a@b.com"}, "tok"},
		{"no email", domain.LegacyFields{UserID: "42"}, "tok"},
		{"nothing", domain.LegacyFields{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.fields.Reconstruct(tt.token)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, domain.ErrPartialIdentity)
		})
	}
}

func TestLegacyFields_SetAndValues(t *testing.T) {
	var f domain.LegacyFields
	for _, k := range domain.LegacyKeys {
		f.Set(k, "v-"+k)
	}
	f.Set("unknown", "ignored")

	values := f.Values()
	assert.Len(t, values, len(domain.LegacyKeys))
	for _, k := range domain.LegacyKeys {
		assert.Equal(t, "v-"+k, values[k])
	}

	projected := domain.LegacyFieldsOf(&domain.Session{ID: "1", AvatarURL: "/x"})
	assert.Equal(t, "1", projected.UserID)
	assert.Equal(t, "/x", projected.UserAvatar)
}
