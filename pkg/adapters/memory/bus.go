package memory

import (
	"context"
	"sync"

	"github.com/unimarket/authctx/pkg/domain"
)

// subscriberBuffer bounds each subscription. Signals beyond it are dropped;
// they are idempotent resets, so a missed duplicate is harmless.
const subscriberBuffer = 16

// Bus is an in-process broadcast hub shared by several execution contexts.
// Each context attaches its own Endpoint.
type Bus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]map[chan domain.Signal]struct{} // EndpointID -> Set of Channels
}

// NewBus creates an empty hub.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int]map[chan domain.Signal]struct{}),
	}
}

// Attach returns a new Endpoint. Signals published through it reach every
// other endpoint of the bus but never itself.
func (b *Bus) Attach() *Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return &Endpoint{bus: b, id: b.nextID}
}

func (b *Bus) subscribe(id int) chan domain.Signal {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Signal, subscriberBuffer)
	if _, ok := b.subscribers[id]; !ok {
		b.subscribers[id] = make(map[chan domain.Signal]struct{})
	}
	b.subscribers[id][ch] = struct{}{}
	return ch
}

func (b *Bus) unsubscribe(id int, ch chan domain.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subscribers[id]; ok {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(b.subscribers, id)
		}
	}
}

func (b *Bus) broadcast(origin int, sig domain.Signal) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, subs := range b.subscribers {
		if id == origin {
			continue
		}
		for ch := range subs {
			select {
			case ch <- sig:
			default:
			}
		}
	}
}

// Endpoint implements ports.Broadcaster for one context attached to a Bus.
type Endpoint struct {
	bus *Bus
	id  int
}

// Publish delivers sig to every other endpoint.
func (e *Endpoint) Publish(ctx context.Context, sig domain.Signal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.bus.broadcast(e.id, sig)
	return nil
}

// Subscribe registers a channel that receives signals from other endpoints
// until ctx is done.
func (e *Endpoint) Subscribe(ctx context.Context) (<-chan domain.Signal, error) {
	ch := e.bus.subscribe(e.id)
	go func() {
		<-ctx.Done()
		e.bus.unsubscribe(e.id, ch)
	}()
	return ch, nil
}
