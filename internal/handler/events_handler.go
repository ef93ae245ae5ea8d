package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/events"
	"github.com/abhyaas/abhyaas-backend/internal/response"
)

const keepAliveInterval = 30 * time.Second

// EventsHandler streams transcript events over SSE from the Redis relay, so
// a client can follow a session that lives on another instance.
type EventsHandler struct {
	bus *events.RedisBus
	log zerolog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(bus *events.RedisBus, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		bus: bus,
		log: log.With().Str("component", "events_handler").Logger(),
	}
}

// AssistantEventsSSE godoc
// GET /api/v1/assistant/:session_id/events
func (h *EventsHandler) AssistantEventsSSE(c *gin.Context) {
	sessionID := c.Param("session_id")
	reqCtx := c.Request.Context()

	pubsub, err := h.bus.Subscribe(reqCtx, sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Subscribe to session events failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrUnavailable)
		return
	}
	defer pubsub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	h.log.Info().Str("session_id", sessionID).Msg("Client attached to assistant events SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("session_id", sessionID).Msg("Client detached from assistant events SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payloads are already JSON-encoded events.
			writeSSE(c, []byte(msg.Payload))

		case <-keepAliveTicker.C:
			writeSSE(c, pingPayload)
		}
	}
}

func writeSSE(c *gin.Context, data []byte) {
	_, _ = c.Writer.Write([]byte("data: "))
	_, _ = c.Writer.Write(data)
	_, _ = c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
