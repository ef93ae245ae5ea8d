package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/config"
	"github.com/abhyaas/abhyaas-backend/internal/model"
)

const (
	TaskLogBatchSize    = 100
	TaskLogBatchTimeout = 2 * time.Second
	TaskLogPollTimeout  = 1 * time.Second
	// TaskLogMaxAttempts caps single-row retries before a log is dropped.
	TaskLogMaxAttempts  = 3
)

// TaskLogStore persists task log batches.
type TaskLogStore interface {
	BulkInsert(ctx context.Context, batch []model.TaskLog) error
	Insert(ctx context.Context, l model.TaskLog) error
}

// Queue is a Redis list used as a work queue. Pop returns redis.Nil when the
// timeout passes without an item.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Push(ctx context.Context, raw []byte) error
	Len(ctx context.Context) (int64, error)
}

type redisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue returns the task log queue backed by rdb.
func NewRedisQueue(rdb *redis.Client) Queue {
	return &redisQueue{rdb: rdb, key: config.WorkerKey.TaskLogQueue}
}

func (q *redisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		return "", err
	}
	if len(item) < 2 {
		return "", redis.Nil
	}
	return item[1], nil
}

func (q *redisQueue) Push(ctx context.Context, raw []byte) error {
	return q.rdb.RPush(ctx, q.key, raw).Err()
}

func (q *redisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// TaskLogProducer enqueues finished dispatches for the worker.
type TaskLogProducer struct {
	queue Queue
	log   zerolog.Logger
}

// NewTaskLogProducer creates a producer.
func NewTaskLogProducer(queue Queue, log zerolog.Logger) *TaskLogProducer {
	return &TaskLogProducer{
		queue: queue,
		log:   log.With().Str("component", "task_log_producer").Logger(),
	}
}

// Enqueue pushes one entry. Failures are logged, never returned to the
// dispatch path.
func (p *TaskLogProducer) Enqueue(ctx context.Context, l model.TaskLog) {
	raw, err := json.Marshal(l)
	if err != nil {
		p.log.Error().Err(err).Msg("Marshal task log")
		return
	}
	if err := p.queue.Push(ctx, raw); err != nil {
		p.log.Warn().Err(err).Str("task", string(l.Task)).Msg("Enqueue task log failed")
	}
}

// TaskLogWorker drains the task log queue into Postgres in batches.
type TaskLogWorker struct {
	queue Queue
	store TaskLogStore
	log   zerolog.Logger
}

func NewTaskLogWorker(queue Queue, store TaskLogStore, log zerolog.Logger) *TaskLogWorker {
	return &TaskLogWorker{
		queue: queue,
		store: store,
		log:   log.With().Str("component", "task_log_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *TaskLogWorker) Start(ctx context.Context) {
	w.log.Info().Msg("TaskLogWorker started")

	batch := make([]model.TaskLog, 0, TaskLogBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= TaskLogBatchSize || time.Since(lastFlush) >= TaskLogBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			raw, err := w.queue.Pop(ctx, TaskLogPollTimeout)
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(TaskLogPollTimeout)
				}
				continue
			}

			var l model.TaskLog
			if err := json.Unmarshal([]byte(raw), &l); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, l)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with per-row fallback
// ----------------------------------------------------------------

func (w *TaskLogWorker) flushSafe(ctx context.Context, batch []model.TaskLog) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk task log insert failed, using fallback")

		for _, l := range batch {
			if err := w.store.Insert(ctx, l); err != nil {
				l.Attempts++
				if l.Attempts >= TaskLogMaxAttempts {
					w.log.Error().Err(err).
						Str("session_id", l.SessionID).
						Str("task", string(l.Task)).
						Int("attempts", l.Attempts).
						Msg("single insert keeps failing, task log dropped")
					continue
				}
				w.log.Error().Err(err).Int("attempts", l.Attempts).Msg("single insert failed, requeueing")
				raw, _ := json.Marshal(l)
				if pushErr := w.queue.Push(ctx, raw); pushErr != nil {
					w.log.Error().Err(pushErr).Msg("requeue failed, task log lost")
				}
			}
		}
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Task logs persisted")
}
