package session

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Closer is implemented by sessions that hold resources. The registry
// closes them when they leave.
type Closer interface {
	Close()
}

func closeValue(v any) {
	if c, ok := v.(Closer); ok {
		c.Close()
	}
}

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// Registry holds live sessions in memory and closes the ones that sat idle
// longer than ttl. A ttl of zero disables expiry.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// NewRegistry starts a registry with a background sweeper.
func NewRegistry[T any](ttl time.Duration) *Registry[T] {
	r := &Registry[T]{
		entries: make(map[string]*entry[T]),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if ttl > 0 {
		go r.sweep(sweepInterval(ttl))
	}
	return r
}

// minSweepInterval keeps tiny ttls from producing a zero ticker period.
const minSweepInterval = time.Millisecond

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl >= 2*time.Minute {
		return time.Minute
	}
	return max(ttl/2, minSweepInterval)
}

// Put stores v under id, closing whatever was there before.
func (r *Registry[T]) Put(id string, v T) {
	r.mu.Lock()
	old, ok := r.entries[id]
	r.entries[id] = &entry[T]{value: v, lastSeen: r.now()}
	r.mu.Unlock()

	if ok {
		closeValue(old.value)
	}
}

// Get returns the session and refreshes its idle timer.
func (r *Registry[T]) Get(id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || r.expired(e) {
		var zero T
		return zero, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.value, nil
}

// Remove deletes and closes the session.
func (r *Registry[T]) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	closeValue(e.value)
	return nil
}

// Range calls fn for every live session until fn returns false.
func (r *Registry[T]) Range(fn func(id string, v T) bool) {
	r.mu.Lock()
	snapshot := make(map[string]T, len(r.entries))
	for id, e := range r.entries {
		if !r.expired(e) {
			snapshot[id] = e.value
		}
	}
	r.mu.Unlock()

	for id, v := range snapshot {
		if !fn(id, v) {
			return
		}
	}
}

// Len returns the number of tracked sessions, expired ones included.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[T]) expired(e *entry[T]) bool {
	return r.ttl > 0 && r.now().Sub(e.lastSeen) > r.ttl
}

func (r *Registry[T]) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictExpired()
		case <-r.done:
			return
		}
	}
}

// evictExpired closes idle sessions outside the lock.
func (r *Registry[T]) evictExpired() int {
	r.mu.Lock()
	var stale []T
	for id, e := range r.entries {
		if r.expired(e) {
			stale = append(stale, e.value)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, v := range stale {
		closeValue(v)
	}
	return len(stale)
}

// Close stops the sweeper and closes every session. Safe to call twice.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.done)
	all := make([]T, 0, len(r.entries))
	for id, e := range r.entries {
		all = append(all, e.value)
		delete(r.entries, id)
	}
	r.mu.Unlock()

	for _, v := range all {
		closeValue(v)
	}
}
