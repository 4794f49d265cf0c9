// Package userlock serializes work per user id. Entries are reference
// counted and removed once no goroutine holds or waits on them.
package userlock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

type Registry struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Registry {
	return &Registry{
		locks: make(map[string]*entry),
	}
}

// Lock blocks until the caller owns userID's lock or ctx is done. The
// returned func releases it and must be called exactly once.
func (r *Registry) Lock(ctx context.Context, userID string) (func(), error) {
	r.mu.Lock()
	e, ok := r.locks[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		r.locks[userID] = e
	}
	e.refs++
	r.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		r.release(userID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			r.release(userID, e)
		})
	}, nil
}

func (r *Registry) release(userID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(r.locks, userID)
	}
}

// Len is the number of users with a held or awaited lock.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
