package domain

import "fmt"

// LegacyFields mirrors the individual per-field keys written next to the
// serialized Session. They are only read when no Session object survives.
type LegacyFields struct {
	UserID          string
	UserEmail       string
	UserFullName    string
	UserRole        string
	UserPhoneNumber string
	UserAvatar      string
}

// LegacyFieldsOf projects a Session onto its individual keys.
func LegacyFieldsOf(s *Session) LegacyFields {
	return LegacyFields{
		UserID:          s.ID,
		UserEmail:       s.Email,
		UserFullName:    s.FullName,
		UserRole:        s.Role,
		UserPhoneNumber: s.PhoneNumber,
		UserAvatar:      s.AvatarURL,
	}
}

// Values returns the key/value pairs in LegacyKeys order.
func (f LegacyFields) Values() map[string]string {
	return map[string]string{
		KeyUserID:          f.UserID,
		KeyUserEmail:       f.UserEmail,
		KeyUserFullName:    f.UserFullName,
		KeyUserRole:        f.UserRole,
		KeyUserPhoneNumber: f.UserPhoneNumber,
		KeyUserAvatar:      f.UserAvatar,
	}
}

// Set assigns a field by its storage key. Unknown keys are ignored.
func (f *LegacyFields) Set(key, value string) {
	switch key {
	case KeyUserID:
		f.UserID = value
	case KeyUserEmail:
		f.UserEmail = value
	case KeyUserFullName:
		f.UserFullName = value
	case KeyUserRole:
		f.UserRole = value
	case KeyUserPhoneNumber:
		f.UserPhoneNumber = value
	case KeyUserAvatar:
		f.UserAvatar = value
	}
}

// Reconstruct builds a Session from the individual fields and a recovered token.
// It fails closed: a missing token, id or email yields ErrPartialIdentity
// instead of a half-populated Session.
func (f LegacyFields) Reconstruct(token string) (*Session, error) {
	var missing []string
	if token == "" {
		missing = append(missing, KeyToken)
	}
	if f.UserID == "" {
		missing = append(missing, KeyUserID)
	}
	if f.UserEmail == "" {
		missing = append(missing, KeyUserEmail)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrPartialIdentity, missing)
	}

	s := &Session{
		ID:          f.UserID,
		Email:       f.UserEmail,
		FullName:    f.UserFullName,
		Role:        f.UserRole,
		PhoneNumber: f.UserPhoneNumber,
		AvatarURL:   f.UserAvatar,
		Token:       token,
	}
	s.Normalize()
	return s, nil
}
