// Package lock serialises writers to the society's data.
//
// The versioned store already rejects a commit whose base revision is stale, so a lock is
// not needed for correctness; it stops two admins finalizing at the same moment from
// turning into one success and one "please retry".
package lock

import (
	"context"
	"sync"
)

// Locker hands out exclusive access to a key. The returned release function must be
// called exactly once; it never fails from the caller's point of view.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local is an in-process Locker. It is enough when a single server instance writes.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocal returns a ready Local locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

// Acquire implements Locker. It waits until key is free or ctx is done.
func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		// A buffered channel of size one works as a mutex that can be waited on with select.
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}
