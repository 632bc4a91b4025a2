package memory

import (
	"context"
	"sync"

	"github.com/unimarket/authctx/pkg/domain"
)

// Tier implements ports.Tier in memory.
// Safe for concurrent use. It is the default tab-scoped tier: its lifetime
// is the lifetime of the process that owns it.
type Tier struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewTier creates a new in-memory tier.
func NewTier() *Tier {
	return &Tier{
		data: make(map[string]string),
	}
}

// Get retrieves a value from memory.
func (t *Tier) Get(ctx context.Context, key string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.data[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

// Set stores a value in memory.
func (t *Tier) Set(ctx context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[key] = value
	return nil
}

// Delete removes keys.
func (t *Tier) Delete(ctx context.Context, keys ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		delete(t.data, k)
	}
	return nil
}

// Keys returns the stored keys. Intended for inspection and tests.
func (t *Tier) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.data))
	for k := range t.data {
		keys = append(keys, k)
	}
	return keys
}
