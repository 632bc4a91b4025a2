package ports

import (
	"context"

	"github.com/unimarket/authctx/pkg/domain"
)

// Broadcaster carries signals between sibling execution contexts.
// Delivery is best effort with no ordering guarantee; only idempotent resets travel on it.
type Broadcaster interface {
	// Publish notifies every other context. The publishing context never
	// receives its own signal back.
	Publish(ctx context.Context, sig domain.Signal) error

	// Subscribe returns a channel of signals published by other contexts.
	// The channel is closed when ctx is done.
	Subscribe(ctx context.Context) (<-chan domain.Signal, error)
}
