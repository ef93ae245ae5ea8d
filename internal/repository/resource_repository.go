package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// ResourceRepository handles resource data access.
type ResourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

// GetByID retrieves a resource by id. Returns pgx.ErrNoRows when absent.
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	res := &model.Resource{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, topic_id, title, url, COALESCE(summary, ''), created_at
		 FROM resources WHERE id = $1`, id,
	).Scan(&res.ID, &res.TopicID, &res.Title, &res.URL, &res.Summary, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateSummary stores a generated summary so later sessions start cached.
func (r *ResourceRepository) UpdateSummary(ctx context.Context, id, summary string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE resources SET summary = $2 WHERE id = $1 AND COALESCE(summary, '') = ''`,
		id, summary)
	return err
}
