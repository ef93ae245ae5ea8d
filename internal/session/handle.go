package session

import (
	"context"
	"sync"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// Handle tracks one dispatched task until its placeholder is resolved or
// the resolution is dropped.
type Handle struct {
	Task  model.Task
	Index int // transcript index of the placeholder

	ctx    context.Context
	cancel context.CancelFunc

	once    sync.Once
	done    chan struct{}
	outcome model.TaskOutcome
}

func newHandle(task model.Task, idx int, ctx context.Context, cancel context.CancelFunc) *Handle {
	return &Handle{
		Task:   task,
		Index:  idx,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Cancel abandons the task. Its resolution will be dropped and the
// placeholder left as is.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the task finished one way or another.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Outcome is only meaningful after Done is closed.
func (h *Handle) Outcome() model.TaskOutcome {
	select {
	case <-h.done:
		return h.outcome
	default:
		return ""
	}
}

// Wait blocks until the task finished or ctx ends.
func (h *Handle) Wait(ctx context.Context) (model.TaskOutcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (h *Handle) finish(o model.TaskOutcome) {
	h.once.Do(func() {
		h.outcome = o
		close(h.done)
		h.cancel()
	})
}
