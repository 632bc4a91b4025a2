package ports

import "context"

// Tier defines one key/value persistence area.
// The store keeps two: a tab-scoped tier owned by one execution context and a
// cross-tab tier shared by every context of the same origin.
type Tier interface {
	// Get returns the value stored under key.
	// Returns domain.ErrKeyNotFound if the key holds no value.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
