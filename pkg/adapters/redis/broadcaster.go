package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/unimarket/authctx/internal/logging"
	"github.com/unimarket/authctx/pkg/domain"
)

// DefaultPulseDelay is how long a signal key lingers before its writer deletes it.
const DefaultPulseDelay = 100 * time.Millisecond

// deleteIfOwned removes the pulse key only if it still carries our payload.
const deleteIfOwned = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// Broadcaster implements ports.Broadcaster on Redis.
// Publishing writes the pulse key (so late readers can still see it briefly)
// and PUBLISHes the same payload on a per-kind channel; subscribers use
// native Pub/Sub instead of polling.
type Broadcaster struct {
	client *backend.Client
	prefix string
	delay  time.Duration
	logger *slog.Logger

	mu   sync.Mutex
	sent map[string]struct{}
}

// BroadcasterOption configures the Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithBroadcastPrefix sets the key and channel prefix. It should match the Tier's prefix.
func WithBroadcastPrefix(prefix string) BroadcasterOption {
	return func(b *Broadcaster) {
		b.prefix = prefix
	}
}

// WithPulseDelay overrides DefaultPulseDelay.
func WithPulseDelay(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) {
		if d > 0 {
			b.delay = d
		}
	}
}

// WithLogger configures a logger for background failures.
func WithLogger(logger *slog.Logger) BroadcasterOption {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

// NewBroadcaster creates a Redis broadcaster.
func NewBroadcaster(client *backend.Client, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		client: client,
		prefix: defaultPrefix,
		delay:  DefaultPulseDelay,
		logger: logging.NewNop(),
		sent:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broadcaster) channel(kind domain.SignalKind) string {
	return b.prefix + "signal:" + string(kind)
}

func (b *Broadcaster) kindOf(channel string) domain.SignalKind {
	return domain.SignalKind(strings.TrimPrefix(channel, b.prefix+"signal:"))
}

// Publish writes the pulse key, publishes the signal and schedules the key's removal.
func (b *Broadcaster) Publish(ctx context.Context, sig domain.Signal) error {
	if !sig.Kind.Valid() {
		return fmt.Errorf("unknown signal kind %q", sig.Kind)
	}
	key, payload := b.prefix+string(sig.Kind), sig.Payload()

	b.mu.Lock()
	b.sent[payload] = struct{}{}
	b.mu.Unlock()

	pipe := b.client.Pipeline()
	pipe.Set(ctx, key, payload, 0)
	pipe.Publish(ctx, b.channel(sig.Kind), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		b.forget(payload)
		return fmt.Errorf("failed to publish %s: %w", sig.Kind, err)
	}

	time.AfterFunc(b.delay, func() {
		if err := b.client.Eval(context.Background(), deleteIfOwned, []string{key}, payload).Err(); err != nil {
			b.logger.Warn("Failed to remove signal pulse", "key", key, "err", err)
		}
		b.forget(payload)
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

// Subscribe listens on every signal channel until ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan domain.Signal, error) {
	kinds := domain.SignalKinds()
	channels := make([]string, len(kinds))
	for i, k := range kinds {
		channels[i] = b.channel(k)
	}

	pubsub := b.client.Subscribe(ctx, channels...)
	// Wait for the subscription confirmation so no publish made after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to signals: %w", err)
	}

	out := make(chan domain.Signal, 16)
	msgs := pubsub.Channel()
	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if b.isOwn(msg.Payload) {
					continue
				}
				sig, err := domain.ParseSignal(b.kindOf(msg.Channel), msg.Payload)
				if err != nil {
					b.logger.Warn("Ignoring malformed signal", "channel", msg.Channel, "err", err)
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
