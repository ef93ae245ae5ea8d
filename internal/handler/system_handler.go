package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/database"
	"github.com/abhyaas/abhyaas-backend/internal/response"
)

const (
	metricsInterval = 7 * time.Second
	healthTimeout   = 2 * time.Second
	queueTimeout    = 2 * time.Second
)

// QueueLengther reports the backlog of a worker queue.
type QueueLengther interface {
	Len(ctx context.Context) (int64, error)
}

// SessionCounter reports how many sessions a service tracks.
type SessionCounter interface {
	Count() int
}

// SystemHandler serves health checks and streams runtime metrics via SSE.
type SystemHandler struct {
	checks     map[string]database.Pinger
	assistants SessionCounter
	quizzes    SessionCounter
	taskLog    QueueLengther
	startTime  time.Time
	log        zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. taskLog may be nil when the
// task log worker is disabled.
func NewSystemHandler(
	checks map[string]database.Pinger,
	assistants, quizzes SessionCounter,
	taskLog QueueLengther,
	log zerolog.Logger,
) *SystemHandler {
	return &SystemHandler{
		checks:     checks,
		assistants: assistants,
		quizzes:    quizzes,
		taskLog:    taskLog,
		startTime:  time.Now(),
		log:        log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Pings every dependency. Failures are listed per dependency with a 503.
func (h *SystemHandler) Health(c *gin.Context) {
	failed := database.RunChecks(c.Request.Context(), h.checks, healthTimeout)
	if len(failed) > 0 {
		h.log.Warn().Interface("checks", failed).Msg("Health check failed")
		response.FailWithFields(c, http.StatusServiceUnavailable, response.ErrUnavailable, failed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// ---------- SSE Endpoint ----------

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	StackInuse uint64 `json:"stack_inuse"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// Sessions
	AssistantSessions int `json:"assistant_sessions"`
	QuizSessions      int `json:"quiz_sessions"`

	// Worker Queues
	QueueTaskLog int64 `json:"queue_task_log"`
}

// SystemMetricsSSE godoc
// GET /api/v1/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Client connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	// Send immediately on connect, then every tick
	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Client disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	writeSSE(c, data)
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	m := systemMetrics{
		Timestamp: time.Now().Unix(),
		Uptime:    formatDuration(time.Since(h.startTime)),
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
	}

	// ── Go Runtime ──
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.Sys
	m.StackInuse = ms.StackInuse
	m.NumGC = ms.NumGC

	// ── Sessions ──
	if h.assistants != nil {
		m.AssistantSessions = h.assistants.Count()
	}
	if h.quizzes != nil {
		m.QuizSessions = h.quizzes.Count()
	}

	// ── Worker Queue ──
	if h.taskLog != nil {
		qctx, cancel := context.WithTimeout(ctx, queueTimeout)
		m.QueueTaskLog, _ = h.taskLog.Len(qctx)
		cancel()
	}

	return m
}

// ---------- Helpers ----------

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
