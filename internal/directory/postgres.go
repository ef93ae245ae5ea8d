package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// ResourceStore is the subset of the resource repository the directory reads.
type ResourceStore interface {
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	UpdateSummary(ctx context.Context, id, summary string) error
}

// Postgres reads resources straight from the resources table.
type Postgres struct {
	store ResourceStore
}

// NewPostgres wraps a resource repository.
func NewPostgres(store ResourceStore) *Postgres {
	return &Postgres{store: store}
}

// GetResource maps pgx.ErrNoRows to ErrResourceNotFound.
func (p *Postgres) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	res, err := p.store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resource %s: %w", id, err)
	}
	return res, nil
}

// SaveSummary stores a generated summary on a resource that has none yet.
func (p *Postgres) SaveSummary(ctx context.Context, id, summary string) error {
	if err := p.store.UpdateSummary(ctx, id, summary); err != nil {
		return fmt.Errorf("save summary %s: %w", id, err)
	}
	return nil
}
