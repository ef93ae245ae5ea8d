package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/config"
	"github.com/abhyaas/abhyaas-backend/internal/handler"
	"github.com/abhyaas/abhyaas-backend/internal/middleware"
	"github.com/abhyaas/abhyaas-backend/internal/response"
	"github.com/abhyaas/abhyaas-backend/internal/service"
)

// resourceMaxAge is how long clients may cache resource headers.
const resourceMaxAge = 60

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Resource  *handler.ResourceHandler
	Assistant *handler.AssistantHandler
	Quiz      *handler.QuizHandler
	WS        *handler.WSHandler
	Events    *handler.EventsHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter guards the HTTP routes that reach the AI gateway; WS intents are
// checked against the same limiter inside the stream handler.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	gated := limiter.Middleware()

	// ─── 1. Resources ──────────────────────────────────────────────────
	resources := router.Group("/api/v1/resources/:resource_id")
	{
		resources.GET("", middleware.CacheControl(resourceMaxAge), handlers.Resource.GetResource)
		resources.GET("/stats", middleware.NoStore(), handlers.Resource.GetStats)
		resources.POST("/assistant", handlers.Assistant.OpenSession)
		resources.POST("/quiz", gated, handlers.Quiz.StartQuiz)
	}

	// ─── 2. Assistant Sessions ─────────────────────────────────────────
	assistant := router.Group("/api/v1/assistant/:session_id")
	assistant.Use(middleware.NoStore())
	{
		assistant.GET("", handlers.Assistant.GetSession)
		assistant.PUT("/draft", handlers.Assistant.SetDraft)
		assistant.POST("/dispatch", gated, handlers.Assistant.Dispatch)
		assistant.POST("/summarize", gated, handlers.Assistant.RunIntent(service.IntentSummarize))
		assistant.POST("/mindmap", gated, handlers.Assistant.RunIntent(service.IntentMindMap))
		assistant.POST("/roadmap", gated, handlers.Assistant.RunIntent(service.IntentRoadMap))
		assistant.POST("/ask", gated, handlers.Assistant.RunIntent(service.IntentAsk))
		assistant.GET("/events", handlers.Events.AssistantEventsSSE)
		assistant.DELETE("", handlers.Assistant.CloseSession)
	}

	// ─── 3. Quiz Sessions ──────────────────────────────────────────────
	quiz := router.Group("/api/v1/quiz/:session_id")
	quiz.Use(middleware.NoStore())
	{
		quiz.GET("", handlers.Quiz.GetQuiz)
		quiz.POST("/select", handlers.Quiz.SelectAnswer)
		quiz.POST("/submit", handlers.Quiz.Submit)
		quiz.POST("/previous", handlers.Quiz.Previous)
		quiz.POST("/reset", handlers.Quiz.Reset)
		quiz.POST("/review", handlers.Quiz.StartReview)
		quiz.POST("/results", handlers.Quiz.ReturnToResults)
		quiz.DELETE("", handlers.Quiz.EndQuiz)
	}

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/assistant/:session_id/stream", handlers.WS.AssistantStream)
	}

	// ─── 5. System ─────────────────────────────────────────────────────
	router.GET("/api/v1/system/metrics", handlers.System.SystemMetricsSSE)

	return router
}
