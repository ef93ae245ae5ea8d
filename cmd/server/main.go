package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/config"
	"github.com/abhyaas/abhyaas-backend/internal/database"
	"github.com/abhyaas/abhyaas-backend/internal/directory"
	"github.com/abhyaas/abhyaas-backend/internal/events"
	"github.com/abhyaas/abhyaas-backend/internal/gateway"
	"github.com/abhyaas/abhyaas-backend/internal/handler"
	"github.com/abhyaas/abhyaas-backend/internal/logger"
	"github.com/abhyaas/abhyaas-backend/internal/middleware"
	"github.com/abhyaas/abhyaas-backend/internal/repository"
	"github.com/abhyaas/abhyaas-backend/internal/router"
	"github.com/abhyaas/abhyaas-backend/internal/service"
	"github.com/abhyaas/abhyaas-backend/internal/session"
	"github.com/abhyaas/abhyaas-backend/internal/validator"
	"github.com/abhyaas/abhyaas-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("directory_mode", cfg.DirectoryMode).
		Msg("Starting Abhyaas Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	resourceRepo := repository.NewResourceRepository(pool)
	taskLogRepo := repository.NewTaskLogRepository(pool)

	// ─── Resource Directory ────────────────────────────────────────────
	var source directory.Reader
	switch cfg.DirectoryMode {
	case config.DirectoryHTTP:
		source = directory.NewHTTPClient(cfg.DirectoryBaseURL, cfg.DirectoryTimeout, log)
	default:
		source = directory.NewPostgres(resourceRepo)
	}
	resourceDir := directory.NewCached(source, directory.NewRedisKV(rdb), cfg.DirectoryCacheTTL, log)

	// ─── AI Gateway & Events ───────────────────────────────────────────
	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayTimeout, log)

	bus := events.NewRedisBus(rdb, log)
	hub := events.NewHub(bus, log)

	var (
		taskLog   service.TaskLogSink
		taskQueue worker.Queue
	)
	if cfg.TaskLogEnabled {
		taskQueue = worker.NewRedisQueue(rdb)
		taskLog = worker.NewTaskLogProducer(taskQueue, log)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	assistantSessions := session.NewRegistry[*session.Assistant](cfg.SessionIdleTTL)
	defer assistantSessions.Close()
	quizSessions := session.NewRegistry[*service.QuizSession](cfg.SessionIdleTTL)
	defer quizSessions.Close()

	assistantService := service.NewAssistantService(gw, resourceDir, assistantSessions, hub, taskLog, log)
	quizService := service.NewQuizService(gw, resourceDir, quizSessions, taskLog, log)
	resourceService := service.NewResourceService(resourceDir, taskLogRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	// One limiter covers both HTTP dispatch routes and WS intents.
	limiter := middleware.NewRateLimiter(cfg.DispatchRatePerMin, time.Minute)
	defer limiter.Stop()

	var queueLen handler.QueueLengther
	if taskQueue != nil {
		queueLen = taskQueue
	}
	handlers := &router.Handlers{
		Resource:  handler.NewResourceHandler(resourceService, log),
		Assistant: handler.NewAssistantHandler(assistantService, log),
		Quiz:      handler.NewQuizHandler(quizService, log),
		WS:        handler.NewWSHandler(assistantService, hub, limiter, log, cfg.AllowedOrigins),
		Events:    handler.NewEventsHandler(bus, log),
		System: handler.NewSystemHandler(
			database.HealthChecks(pool, rdb),
			assistantService, quizService,
			queueLen,
			log,
		),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	go hub.Run(workerCtx)

	workersDone := make(chan struct{})
	if cfg.TaskLogEnabled {
		taskLogWorker := worker.NewTaskLogWorker(taskQueue, taskLogRepo, log)
		go func() {
			taskLogWorker.Start(workerCtx)
			close(workersDone)
		}()
	} else {
		close(workersDone)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, limiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Close sessions so outstanding tasks are dropped, then the streams.
	assistantSessions.Close()
	quizSessions.Close()
	hub.Close()

	// 3. Stop background workers and wait for the task log to drain.
	workerCancel()
	select {
	case <-workersDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Task log worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
