package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhyaas/abhyaas-backend/internal/directory"
	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// TaskStats aggregates logged task outcomes.
type TaskStats interface {
	CountByOutcome(ctx context.Context, resourceID string) (map[model.TaskOutcome]int, error)
}

// ResourceService exposes directory metadata and task statistics.
type ResourceService struct {
	directory directory.Reader
	stats     TaskStats
}

// NewResourceService creates a new ResourceService. stats may be nil.
func NewResourceService(dir directory.Reader, stats TaskStats) *ResourceService {
	return &ResourceService{directory: dir, stats: stats}
}

// Get returns the resource header (title, url, summary).
func (s *ResourceService) Get(ctx context.Context, id string) (*model.ResourceContext, error) {
	res, err := s.directory.GetResource(ctx, id)
	if errors.Is(err, directory.ErrResourceNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	rc := model.ContextOf(res)
	rc.ID = id
	return &rc, nil
}

// ResourceStats is the per-outcome count of logged AI tasks.
type ResourceStats struct {
	ResourceID string                    `json:"resource_id"`
	Outcomes   map[model.TaskOutcome]int `json:"outcomes"`
}

// Stats returns task outcome counts for a resource.
func (s *ResourceService) Stats(ctx context.Context, id string) (*ResourceStats, error) {
	out := &ResourceStats{ResourceID: id, Outcomes: map[model.TaskOutcome]int{}}
	if s.stats == nil {
		return out, nil
	}
	counts, err := s.stats.CountByOutcome(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count task outcomes: %w", err)
	}
	out.Outcomes = counts
	return out, nil
}
