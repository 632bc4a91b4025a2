package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/unimarket/authctx/internal/logging"
	"github.com/unimarket/authctx/pkg/domain"
)

// DefaultPulseDelay is how long a signal key lingers before its writer deletes it.
const DefaultPulseDelay = 100 * time.Millisecond

// Broadcaster implements ports.Broadcaster with the pulse protocol on a file Tier:
// the publisher writes the signal key with a timestamp, siblings observe the
// write through fsnotify, and the publisher deletes the key after the pulse delay.
type Broadcaster struct {
	tier   *Tier
	delay  time.Duration
	logger *slog.Logger

	mu   sync.Mutex
	sent map[string]struct{} // payloads written by this context
}

// Option configures the Broadcaster.
type Option func(*Broadcaster)

// WithPulseDelay overrides DefaultPulseDelay.
func WithPulseDelay(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.delay = d
		}
	}
}

// WithLogger configures a logger for watcher errors.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

// NewBroadcaster creates a pulse broadcaster over the given tier.
func NewBroadcaster(tier *Tier, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		tier:   tier,
		delay:  DefaultPulseDelay,
		logger: logging.NewNop(),
		sent:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish writes the pulse and schedules its removal.
func (b *Broadcaster) Publish(ctx context.Context, sig domain.Signal) error {
	if !sig.Kind.Valid() {
		return fmt.Errorf("unknown signal kind %q", sig.Kind)
	}
	key, payload := string(sig.Kind), sig.Payload()

	b.mu.Lock()
	b.sent[payload] = struct{}{}
	b.mu.Unlock()

	if err := b.tier.Set(ctx, key, payload); err != nil {
		b.forget(payload)
		return fmt.Errorf("failed to write %s pulse: %w", key, err)
	}

	time.AfterFunc(b.delay, func() {
		// A newer pulse from a sibling may have replaced ours; leave it alone.
		if cur, err := b.tier.Get(context.Background(), key); err == nil && cur == payload {
			if err := b.tier.Delete(context.Background(), key); err != nil {
				b.logger.Warn("Failed to remove signal pulse", "key", key, "err", err)
			}
		}
		// Late watcher events may still read the value; keep it muted a little longer.
		time.AfterFunc(b.delay, func() { b.forget(payload) })
	})
	return nil
}

func (b *Broadcaster) forget(payload string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sent, payload)
}

func (b *Broadcaster) isOwn(payload string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sent[payload]
	return ok
}

// Subscribe watches the tier directory for pulses written by other contexts.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan domain.Signal, error) {
	if err := os.MkdirAll(b.tier.BasePath, 0o700); err != nil {
		return nil, fmt.Errorf("%w: failed to ensure storage directory: %v", domain.ErrStorageUnavailable, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(b.tier.BasePath); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", b.tier.BasePath, err)
	}

	out := make(chan domain.Signal, 16)
	go func() {
		defer close(out)
		defer watcher.Close()

		// Create and Write may both fire for one pulse.
		lastSeen := make(map[domain.SignalKind]string)

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn("Signal watcher error", "err", err)
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				key, ok := keyOf(ev.Name)
				if !ok {
					continue
				}
				kind := domain.SignalKind(key)
				if !kind.Valid() {
					continue
				}

				payload, err := b.tier.Get(ctx, key)
				if err != nil {
					if !errors.Is(err, domain.ErrKeyNotFound) {
						b.logger.Warn("Failed to read signal pulse", "key", key, "err", err)
					}
					continue
				}
				if payload == lastSeen[kind] || b.isOwn(payload) {
					continue
				}
				lastSeen[kind] = payload

				sig, err := domain.ParseSignal(kind, payload)
				if err != nil {
					b.logger.Warn("Ignoring malformed signal pulse", "key", key, "err", err)
					continue
				}

				select {
				case out <- sig:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
