package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// TaskLogRepository persists dispatched task outcomes.
type TaskLogRepository struct {
	pool *pgxpool.Pool
}

// NewTaskLogRepository creates a new TaskLogRepository.
func NewTaskLogRepository(pool *pgxpool.Pool) *TaskLogRepository {
	return &TaskLogRepository{pool: pool}
}

// BulkInsert writes a batch in one round trip using UNNEST.
func (r *TaskLogRepository) BulkInsert(ctx context.Context, batch []model.TaskLog) error {
	n := len(batch)
	sessions := make([]string, n)
	resources := make([]string, n)
	tasks := make([]string, n)
	outcomes := make([]string, n)
	durations := make([]int64, n)
	errs := make([]string, n)
	finishedAts := make([]time.Time, n)

	for i, l := range batch {
		sessions[i] = l.SessionID
		resources[i] = l.ResourceID
		tasks[i] = string(l.Task)
		outcomes[i] = string(l.Outcome)
		durations[i] = l.DurationMs
		errs[i] = l.Error
		finishedAts[i] = l.FinishedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO ai_task_logs
			(session_id, resource_id, task, outcome, duration_ms, error, finished_at)
		SELECT u.session_id, u.resource_id, u.task, u.outcome, u.duration_ms,
		       NULLIF(u.error, ''), u.finished_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::bigint[],
			$6::text[],
			$7::timestamptz[]
		) AS u (session_id, resource_id, task, outcome, duration_ms, error, finished_at)`,
		sessions, resources, tasks, outcomes, durations, errs, finishedAts)
	return err
}

// Insert writes a single entry.
func (r *TaskLogRepository) Insert(ctx context.Context, l model.TaskLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ai_task_logs
			(session_id, resource_id, task, outcome, duration_ms, error, finished_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
		l.SessionID, l.ResourceID, string(l.Task), string(l.Outcome), l.DurationMs, l.Error, l.FinishedAt)
	return err
}

// CountByOutcome aggregates outcomes for a resource, used by the stats endpoint.
func (r *TaskLogRepository) CountByOutcome(ctx context.Context, resourceID string) (map[model.TaskOutcome]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT outcome, COUNT(*) FROM ai_task_logs
		 WHERE resource_id = $1 GROUP BY outcome`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.TaskOutcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[model.TaskOutcome(outcome)] = n
	}
	return counts, rows.Err()
}
