package session

import (
	"context"
	"sync"
)

// LoadState tracks a one-time initialization.
type LoadState string

const (
	LoadNotStarted LoadState = "NOT_STARTED"
	LoadInFlight   LoadState = "IN_FLIGHT"
	LoadDone       LoadState = "DONE"
	LoadFailed     LoadState = "FAILED"
)

// Loader runs fn at most once. Callers arriving while the first call is in
// flight wait for its result; later callers get the stored result without
// calling fn again.
type Loader[T any] struct {
	mu    sync.Mutex
	state LoadState
	done  chan struct{}
	val   T
	err   error
	fn    func(ctx context.Context) (T, error)
}

// NewLoader wraps fn.
func NewLoader[T any](fn func(ctx context.Context) (T, error)) *Loader[T] {
	return &Loader[T]{state: LoadNotStarted, fn: fn}
}

// Load triggers the initialization if needed and waits for it. A waiting
// caller whose ctx ends gets ctx.Err(); the in-flight call keeps running.
func (l *Loader[T]) Load(ctx context.Context) (T, error) {
	l.mu.Lock()
	switch l.state {
	case LoadDone, LoadFailed:
		v, err := l.val, l.err
		l.mu.Unlock()
		return v, err
	case LoadInFlight:
		done := l.done
		l.mu.Unlock()
		return l.wait(ctx, done)
	}

	l.state = LoadInFlight
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	// Detach from the first caller's cancellation so waiters still get a result.
	go l.run(context.WithoutCancel(ctx), done)
	return l.wait(ctx, done)
}

func (l *Loader[T]) run(ctx context.Context, done chan struct{}) {
	v, err := l.fn(ctx)

	l.mu.Lock()
	l.val, l.err = v, err
	if err != nil {
		l.state = LoadFailed
	} else {
		l.state = LoadDone
	}
	l.mu.Unlock()
	close(done)
}

func (l *Loader[T]) wait(ctx context.Context, done chan struct{}) (T, error) {
	select {
	case <-done:
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.val, l.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// State reports the current state without blocking.
func (l *Loader[T]) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
