package domain

import (
	"fmt"
	"strconv"
	"time"
)

// SignalKind names a cross-context broadcast. The value doubles as the
// storage key used by pulse-based transports.
type SignalKind string

const (
	SignalLogout             SignalKind = KeyLogoutSignal
	SignalClearSearchHistory SignalKind = KeyClearSearchHistoryUI
)

// Topic returns the pub/sub topic name of the kind.
func (k SignalKind) Topic() string {
	switch k {
	case SignalLogout:
		return "logout"
	case SignalClearSearchHistory:
		return "clear-ui"
	default:
		return string(k)
	}
}

// Valid reports whether k is one of the known kinds.
func (k SignalKind) Valid() bool {
	return k == SignalLogout || k == SignalClearSearchHistory
}

// SignalKinds lists every known kind.
func SignalKinds() []SignalKind {
	return []SignalKind{SignalLogout, SignalClearSearchHistory}
}

// Signal is an ephemeral "act now" pulse. It carries nothing but a timestamp.
type Signal struct {
	Kind      SignalKind
	Timestamp time.Time
}

// NewSignal stamps a signal of the given kind.
func NewSignal(kind SignalKind, now time.Time) Signal {
	return Signal{Kind: kind, Timestamp: now}
}

// Payload encodes the timestamp the way it is written to storage.
func (s Signal) Payload() string {
	return strconv.FormatInt(s.Timestamp.UnixNano(), 10)
}

// ParseSignal decodes a pulse payload for the given kind.
func ParseSignal(kind SignalKind, payload string) (Signal, error) {
	if !kind.Valid() {
		return Signal{}, fmt.Errorf("unknown signal kind %q", kind)
	}
	ns, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return Signal{}, fmt.Errorf("%w: signal payload %q", ErrMalformedData, payload)
	}
	return Signal{Kind: kind, Timestamp: time.Unix(0, ns)}, nil
}
