package authctx

import (
	"log/slog"
	"time"

	"github.com/unimarket/authctx/pkg/observability"
	"github.com/unimarket/authctx/pkg/ports"
)

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithLogger sets a custom structured logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithBroadcaster enables cross-context signalling.
// Without one, Logout only affects the current context and Listen fails.
func WithBroadcaster(b ports.Broadcaster) Option {
	return func(s *Store) {
		s.broadcaster = b
	}
}

// WithTabID pins the tab identity instead of generating one on Initialize.
func WithTabID(id string) Option {
	return func(s *Store) {
		s.tabID = id
	}
}

// WithMetrics records store activity on the given collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock overrides the time source used to stamp signals.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}
