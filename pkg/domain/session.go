package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Session is the authenticated identity held by one execution context.
// JSON field names match the persisted "user" object.
type Session struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"fullName"`
	Role           string `json:"role"`
	PhoneNumber    string `json:"phoneNumber"`
	AvatarURL      string `json:"avatarUrl"`
	Token          string `json:"token"`
	EmailConfirmed bool   `json:"emailConfirmed"`
	LoginProvider  string `json:"loginProvider"`
}

// Normalize fills optional attributes with their defaults.
func (s *Session) Normalize() {
	if strings.TrimSpace(s.Role) == "" {
		s.Role = DefaultRole
	}
	if strings.TrimSpace(s.LoginProvider) == "" {
		s.LoginProvider = DefaultLoginProvider
	}
}

// Clone returns an independent copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Merge applies the fields present in p and returns the merged copy.
// The receiver is not modified.
func (s *Session) Merge(p Patch) *Session {
	out := s.Clone()
	if p.ID != nil {
		out.ID = *p.ID
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.FullName != nil {
		out.FullName = *p.FullName
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.PhoneNumber != nil {
		out.PhoneNumber = *p.PhoneNumber
	}
	if p.AvatarURL != nil {
		out.AvatarURL = *p.AvatarURL
	}
	if p.Token != nil {
		out.Token = *p.Token
	}
	if p.EmailConfirmed != nil {
		out.EmailConfirmed = *p.EmailConfirmed
	}
	if p.LoginProvider != nil {
		out.LoginProvider = *p.LoginProvider
	}
	out.Normalize()
	return out
}

// MarshalSession encodes a normalized copy of s.
func MarshalSession(s *Session) (string, error) {
	c := s.Clone()
	c.Normalize()
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	return string(data), nil
}

// UnmarshalSession decodes a persisted Session.
// Decoding failures and JSON null are reported as ErrMalformedData.
func UnmarshalSession(raw string) (*Session, error) {
	var s *Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: null session", ErrMalformedData)
	}
	s.Normalize()
	return s, nil
}
