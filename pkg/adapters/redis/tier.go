package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/unimarket/authctx/pkg/domain"
)

const defaultPrefix = "unimarket:"

// Tier implements ports.Tier using Redis.
// Every context pointed at the same Redis and prefix shares it (the cross-tab tier).
type Tier struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Tier)

// WithTTL sets the expiration for stored keys.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tier) {
		t.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(t *Tier) {
		t.prefix = prefix
	}
}

// New creates a new Redis tier with options.
func New(address, password string, db int, opts ...Option) *Tier {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis tier from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Tier {
	tier := &Tier{
		client: client,
		prefix: defaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(tier)
	}

	return tier
}

func (t *Tier) key(k string) string {
	return t.prefix + k
}

// Get retrieves a value from Redis.
func (t *Tier) Get(ctx context.Context, key string) (string, error) {
	val, err := t.client.Get(ctx, t.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: failed to get from redis: %v", domain.ErrStorageUnavailable, err)
	}
	return val, nil
}

// Set stores a value in Redis.
func (t *Tier) Set(ctx context.Context, key, value string) error {
	if err := t.client.Set(ctx, t.key(key), value, t.ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to save to redis: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes keys.
func (t *Tier) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = t.key(k)
	}
	if err := t.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete from redis: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Client returns the underlying client so a Broadcaster can share the connection pool.
func (t *Tier) Client() *backend.Client {
	return t.client
}

// Prefix returns the configured key prefix.
func (t *Tier) Prefix() string {
	return t.prefix
}

// Close closes the redis client.
func (t *Tier) Close() error {
	return t.client.Close()
}
