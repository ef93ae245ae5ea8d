// Package directory resolves resource metadata by id. Three readers share
// one contract: the HTTP directory, the Postgres table, and a Redis
// read-through cache in front of either.
package directory

import (
	"context"
	"errors"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// ErrResourceNotFound is returned when the directory has no such resource.
var ErrResourceNotFound = errors.New("resource not found")

// Reader looks up a resource by id.
type Reader interface {
	GetResource(ctx context.Context, id string) (*model.Resource, error)
}

// SummaryWriter is implemented by readers that can persist a generated summary.
type SummaryWriter interface {
	SaveSummary(ctx context.Context, id, summary string) error
}
