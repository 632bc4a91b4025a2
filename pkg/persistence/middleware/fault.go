package middleware

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/unimarket/authctx/pkg/domain"
	"github.com/unimarket/authctx/pkg/ports"
)

// Fault injects storage failures into a Tier, the way a full quota or a
// disabled storage would.
type Fault struct {
	failGet    atomic.Bool
	failSet    atomic.Bool
	failDelete atomic.Bool
}

// FailGets toggles read failures.
func (f *Fault) FailGets(on bool) { f.failGet.Store(on) }

// FailSets toggles write failures.
func (f *Fault) FailSets(on bool) { f.failSet.Store(on) }

// FailDeletes toggles delete failures.
func (f *Fault) FailDeletes(on bool) { f.failDelete.Store(on) }

// FailAll toggles every operation.
func (f *Fault) FailAll(on bool) {
	f.FailGets(on)
	f.FailSets(on)
	f.FailDeletes(on)
}

// Middleware returns the wrapping function bound to this Fault.
func (f *Fault) Middleware() Middleware {
	return func(next ports.Tier) ports.Tier {
		return &faultTier{next: next, fault: f}
	}
}

type faultTier struct {
	next  ports.Tier
	fault *Fault
}

func (t *faultTier) Get(ctx context.Context, key string) (string, error) {
	if t.fault.failGet.Load() {
		return "", fmt.Errorf("%w: injected read failure for %s", domain.ErrStorageUnavailable, key)
	}
	return t.next.Get(ctx, key)
}

func (t *faultTier) Set(ctx context.Context, key, value string) error {
	if t.fault.failSet.Load() {
		return fmt.Errorf("%w: injected quota exceeded for %s", domain.ErrStorageUnavailable, key)
	}
	return t.next.Set(ctx, key, value)
}

func (t *faultTier) Delete(ctx context.Context, keys ...string) error {
	if t.fault.failDelete.Load() {
		return fmt.Errorf("%w: injected delete failure", domain.ErrStorageUnavailable)
	}
	return t.next.Delete(ctx, keys...)
}
