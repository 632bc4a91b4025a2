package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Patch is a partial update to a Session. Nil fields are left untouched.
type Patch struct {
	ID             *string `json:"id,omitempty" mapstructure:"id"`
	Email          *string `json:"email,omitempty" mapstructure:"email"`
	FullName       *string `json:"fullName,omitempty" mapstructure:"fullName"`
	Role           *string `json:"role,omitempty" mapstructure:"role"`
	PhoneNumber    *string `json:"phoneNumber,omitempty" mapstructure:"phoneNumber"`
	AvatarURL      *string `json:"avatarUrl,omitempty" mapstructure:"avatarUrl"`
	Token          *string `json:"token,omitempty" mapstructure:"token"`
	EmailConfirmed *bool   `json:"emailConfirmed,omitempty" mapstructure:"emailConfirmed"`
	LoginProvider  *string `json:"loginProvider,omitempty" mapstructure:"loginProvider"`
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// PatchFromMap decodes a loosely typed partial payload (HTTP body, CLI key=value pairs).
// Keys use the persisted JSON names. Unknown keys are rejected.
func PatchFromMap(m map[string]any) (Patch, error) {
	var p Patch
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Patch{}, err
	}
	if err := dec.Decode(m); err != nil {
		return Patch{}, fmt.Errorf("invalid session patch: %w", err)
	}
	return p, nil
}

// String returns a pointer to v. Used to build patches inline.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
