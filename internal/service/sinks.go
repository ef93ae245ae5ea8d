package service

import (
	"context"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// EventPublisher receives transcript events. Publish is called while a
// session lock is held and must not block.
type EventPublisher interface {
	Publish(ev model.TranscriptEvent)
	DropSession(sessionID string)
}

// TaskLogSink records finished gateway tasks.
type TaskLogSink interface {
	Enqueue(ctx context.Context, l model.TaskLog)
}
