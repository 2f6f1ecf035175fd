// Package lock provides the in-flight token that serializes signal
// request cycles.
package lock

import (
	"context"
	"sync"

	"github.com/newthinker/quantsafe/internal/core"
)

// Guard hands out at most one token at a time. TryAcquire never blocks
// waiting for a holder: it returns core.ErrBusy instead. The returned
// release func is safe to call more than once.
type Guard interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}

// Local is an in-process Guard.
type Local struct {
	mu sync.Mutex
}

// NewLocal creates an in-process guard.
func NewLocal() *Local {
	return &Local{}
}

// TryAcquire takes the token if it is free.
func (l *Local) TryAcquire(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, core.ErrBusy
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}
