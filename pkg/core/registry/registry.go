// Package registry guards roster generation so only one run per station and period is in flight.
package registry

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Locker grants exclusive, non-blocking ownership of a key.
// TryAcquire returns model.ErrConcurrentGeneration when the key is already held.
// The returned release func is safe to call more than once.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryLocker is an in-process Locker
type MemoryLocker struct {
	held *xsync.Map[string, struct{}]
}

// NewMemoryLocker creates an empty in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: xsync.NewMap[string, struct{}]()}
}

func (l *MemoryLocker) TryAcquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, loaded := l.held.LoadOrStore(key, struct{}{}); loaded {
		return nil, model.ErrConcurrentGeneration
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.held.Delete(key) })
	}, nil
}

// Held reports whether a key is currently held
func (l *MemoryLocker) Held(key string) bool {
	_, ok := l.held.Load(key)
	return ok
}

// KeyedMutex serialises work per key, blocking until the key is free.
// A key's entry is dropped once nobody holds or waits for it.
type KeyedMutex struct {
	locks *xsync.Map[string, *keyedEntry]
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: xsync.NewMap[string, *keyedEntry]()}
}

// Lock blocks until the key is free and returns the unlock func.
// The unlock func is safe to call more than once.
func (k *KeyedMutex) Lock(key string) func() {
	entry, _ := k.locks.Compute(key, func(e *keyedEntry, loaded bool) (*keyedEntry, xsync.ComputeOp) {
		if !loaded {
			e = &keyedEntry{}
		}
		e.refs++
		return e, xsync.UpdateOp
	})
	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			k.locks.Compute(key, func(e *keyedEntry, loaded bool) (*keyedEntry, xsync.ComputeOp) {
				e.refs--
				if e.refs == 0 {
					return nil, xsync.DeleteOp
				}
				return e, xsync.UpdateOp
			})
		})
	}
}

// Len returns the number of keys currently held or waited on
func (k *KeyedMutex) Len() int {
	return k.locks.Size()
}
