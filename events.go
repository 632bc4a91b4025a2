package authctx

import "sync"

// Event is an in-context notification raised by the cross-context listener.
// Its value is the topic of the signal that raised it.
type Event string

const (
	// EventRemoteLogout fires after a sibling context logged out and this one cleared itself.
	EventRemoteLogout Event = "logout"
	// EventClearSearchHistory asks collaborators to drop transient, non-session
	// UI caches such as a recent-searches list.
	EventClearSearchHistory Event = "clear-ui"
)

type eventHub struct {
	mu       sync.Mutex
	nextID   int
	handlers map[Event]map[int]func()
}

func newEventHub() *eventHub {
	return &eventHub{handlers: make(map[Event]map[int]func())}
}

func (h *eventHub) on(ev Event, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.handlers[ev] == nil {
		h.handlers[ev] = make(map[int]func())
	}
	h.handlers[ev][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers[ev], id)
	}
}

func (h *eventHub) emit(ev Event) {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.handlers[ev]))
	for _, fn := range h.handlers[ev] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	// Handlers run unlocked so they may subscribe or unsubscribe.
	for _, fn := range fns {
		fn()
	}
}

// On registers fn for ev and returns a function that removes it.
func (s *Store) On(ev Event, fn func()) (unsubscribe func()) {
	return s.events.on(ev, fn)
}

// OnClearSearchHistory registers fn for EventClearSearchHistory.
func (s *Store) OnClearSearchHistory(fn func()) (unsubscribe func()) {
	return s.On(EventClearSearchHistory, fn)
}
