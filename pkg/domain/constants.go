package domain

// Storage key surface. Both tiers expose the same key names.
const (
	// KeyUser holds the serialized Session JSON.
	KeyUser = "user"

	KeyUserID          = "userId"
	KeyUserEmail       = "userEmail"
	KeyUserFullName    = "userFullName"
	KeyUserRole        = "userRole"
	KeyUserPhoneNumber = "userPhoneNumber"
	KeyUserAvatar      = "userAvatar"

	// KeyToken holds the bearer credential as a plain string.
	KeyToken = "token"

	// KeyTabID is only ever written to the tab-scoped tier.
	KeyTabID = "tabId"

	// Signal keys are only ever written to the cross-tab tier, and only briefly.
	KeyLogoutSignal         = "logout_signal"
	KeyClearSearchHistoryUI = "clear_search_history_ui"
)

// Defaults applied to optional Session attributes.
const (
	DefaultRole          = "User"
	DefaultLoginProvider = "Email"
)

// LegacyKeys lists the individual field keys in the order they are written.
var LegacyKeys = []string{
	KeyUserID,
	KeyUserEmail,
	KeyUserFullName,
	KeyUserRole,
	KeyUserPhoneNumber,
	KeyUserAvatar,
}

// SessionKeys lists every key that belongs to an authenticated session.
// Logout purges all of them from both tiers.
func SessionKeys() []string {
	keys := make([]string, 0, len(LegacyKeys)+2)
	keys = append(keys, KeyUser, KeyToken)
	return append(keys, LegacyKeys...)
}
