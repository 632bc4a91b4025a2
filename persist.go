package authctx

import (
	"context"
	"errors"

	"github.com/unimarket/authctx/pkg/domain"
	"github.com/unimarket/authctx/pkg/ports"
)

type kv struct {
	key   string
	value string
}

type namedTier struct {
	name string
	ports.Tier
}

func (s *Store) tiers() []namedTier {
	return []namedTier{{tierTab, s.tab}, {tierShared, s.shared}}
}

// persistSession writes the full object, the legacy fields and the token to both tiers.
// Caller holds mu.
func (s *Store) persistSession(ctx context.Context, sess *domain.Session) {
	raw, err := domain.MarshalSession(sess)
	if err != nil {
		s.logger.Error("Failed to encode session", "tab_id", s.tabID, "err", err)
		return
	}

	values := []kv{{domain.KeyUser, raw}}
	legacy := domain.LegacyFieldsOf(sess).Values()
	for _, k := range domain.LegacyKeys {
		values = append(values, kv{k, legacy[k]})
	}
	if sess.Token != "" {
		values = append(values, kv{domain.KeyToken, sess.Token})
	}
	s.writeAll(ctx, values)
}

// writeAll mirrors values into both tiers. A failing write is logged and
// skipped; the remaining writes still happen.
func (s *Store) writeAll(ctx context.Context, values []kv) {
	for _, t := range s.tiers() {
		for _, v := range values {
			if err := t.Set(ctx, v.key, v.value); err != nil {
				s.storageFailed(t.name, "set", v.key, err)
			}
		}
	}
}

func (s *Store) purge(ctx context.Context, keys []string, tiers ...namedTier) {
	for _, t := range tiers {
		if err := t.Delete(ctx, keys...); err != nil {
			s.storageFailed(t.name, "delete", "", err)
		}
	}
}

// read returns the value or "" on a miss. Failures other than a miss are logged.
func (s *Store) read(ctx context.Context, t namedTier, key string) (string, bool) {
	v, err := t.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.storageFailed(t.name, "get", key, err)
		}
		return "", false
	}
	return v, true
}

func (s *Store) storageFailed(tier, op, key string, err error) {
	s.metrics.StorageFailed(tier, op)
	s.logger.Warn("Storage operation failed",
		"tab_id", s.tabID,
		"tier", tier,
		"op", op,
		"key", key,
		"err", err,
	)
}
