package authctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/unimarket/authctx/pkg/domain"
	"github.com/unimarket/authctx/pkg/observability"
)

// ensureTabID loads or creates the tab identity. It lives in the tab tier only.
func (s *Store) ensureTabID(ctx context.Context) {
	tab := namedTier{tierTab, s.tab}
	if s.tabID != "" {
		if err := tab.Set(ctx, domain.KeyTabID, s.tabID); err != nil {
			s.storageFailed(tierTab, "set", domain.KeyTabID, err)
		}
		return
	}
	if id, ok := s.read(ctx, tab, domain.KeyTabID); ok && id != "" {
		s.tabID = id
		return
	}
	s.tabID = uuid.NewString()
	if err := tab.Set(ctx, domain.KeyTabID, s.tabID); err != nil {
		s.storageFailed(tierTab, "set", domain.KeyTabID, err)
	}
}

// restore tries the tab tier, then the shared tier (with read-repair), then
// the legacy per-field keys. Caller holds mu.
func (s *Store) restore(ctx context.Context) (*domain.Session, string) {
	tab, shared := namedTier{tierTab, s.tab}, namedTier{tierShared, s.shared}

	if sess := s.loadSession(ctx, tab); sess != nil {
		return sess, observability.SourceTab
	}

	if sess := s.loadSession(ctx, shared); sess != nil {
		s.backfill(ctx, sess)
		return sess, observability.SourceShared
	}

	if sess := s.restoreLegacy(ctx); sess != nil {
		return sess, observability.SourceLegacy
	}
	return nil, observability.SourceNone
}

// loadSession decodes the session object of one tier and attaches a token.
// A session with no token anywhere counts as logged out.
func (s *Store) loadSession(ctx context.Context, t namedTier) *domain.Session {
	raw, ok := s.read(ctx, t, domain.KeyUser)
	if !ok {
		return nil
	}
	sess, err := domain.UnmarshalSession(raw)
	if err != nil {
		s.logger.Warn("Discarding unreadable session", "tab_id", s.tabID, "tier", t.name, "err", err)
		return nil
	}
	if sess.Token == "" {
		sess.Token = s.recoverToken(ctx)
	}
	if sess.Token == "" {
		s.logger.Debug("Ignoring session without token", "tab_id", s.tabID, "tier", t.name)
		return nil
	}
	return sess
}

// backfill copies a session found in the shared tier into the tab tier.
func (s *Store) backfill(ctx context.Context, sess *domain.Session) {
	raw, err := domain.MarshalSession(sess)
	if err != nil {
		return
	}
	tab := namedTier{tierTab, s.tab}
	for _, v := range []kv{{domain.KeyUser, raw}, {domain.KeyToken, sess.Token}} {
		if err := tab.Set(ctx, v.key, v.value); err != nil {
			s.storageFailed(tierTab, "set", v.key, err)
		}
	}
}

// recoverToken reads the standalone token, tab tier first. A token found
// only in the shared tier is copied into the tab tier.
func (s *Store) recoverToken(ctx context.Context) string {
	tab, shared := namedTier{tierTab, s.tab}, namedTier{tierShared, s.shared}

	if tok, ok := s.read(ctx, tab, domain.KeyToken); ok && tok != "" {
		return tok
	}
	tok, ok := s.read(ctx, shared, domain.KeyToken)
	if !ok || tok == "" {
		return ""
	}
	if err := tab.Set(ctx, domain.KeyToken, tok); err != nil {
		s.storageFailed(tierTab, "set", domain.KeyToken, err)
	}
	return tok
}

// restoreLegacy rebuilds a session from the individual field keys written by
// older clients. This is the fallback path only; it fails closed.
func (s *Store) restoreLegacy(ctx context.Context) *domain.Session {
	var fields domain.LegacyFields
	found := false
	for _, key := range domain.LegacyKeys {
		for _, t := range s.tiers() {
			if v, ok := s.read(ctx, t, key); ok && v != "" {
				fields.Set(key, v)
				found = true
				break
			}
		}
	}
	if !found {
		return nil
	}

	sess, err := fields.Reconstruct(s.recoverToken(ctx))
	if err != nil {
		s.logger.Info("Legacy session fields incomplete, staying logged out", "tab_id", s.tabID, "err", err)
		return nil
	}

	// Upgrade storage to the session object so the next restore takes the primary path.
	s.persistSession(ctx, sess)
	return sess
}
