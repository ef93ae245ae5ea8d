package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/events"
	"github.com/abhyaas/abhyaas-backend/internal/model"
	"github.com/abhyaas/abhyaas-backend/internal/response"
	"github.com/abhyaas/abhyaas-backend/internal/service"
	"github.com/abhyaas/abhyaas-backend/internal/session"
	ws "github.com/abhyaas/abhyaas-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Limiter decides whether a client may start one more gateway task.
type Limiter interface {
	Allow(key string) bool
}

// WSHandler streams an assistant session over a WebSocket: transcript
// events go out as they happen and intents come in as actions.
type WSHandler struct {
	assistantService *service.AssistantService
	hub              *events.Hub
	limiter          Limiter
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. A nil limiter leaves intents unlimited.
func NewWSHandler(assistantService *service.AssistantService, hub *events.Hub, limiter Limiter, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		assistantService: assistantService,
		hub:              hub,
		limiter:          limiter,
		log:              log.With().Str("component", "ws_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// AssistantStream godoc
// WS /ws/v1/assistant/:session_id/stream
func (h *WSHandler) AssistantStream(c *gin.Context) {
	sessionID := c.Param("session_id")
	a, err := h.assistantService.Lookup(sessionID)
	if err != nil {
		failFromError(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	clientIP := c.ClientIP()
	wsLog := h.log.With().Str("session_id", sessionID).Logger()

	// Subscribe before the snapshot so nothing falls between the two.
	evs, unsubscribe := h.hub.Subscribe(sessionID)
	defer unsubscribe()

	if err := conn.WriteTyped(ws.SnapshotResponse{
		Event:      ws.EventSnapshot,
		Resource:   a.Context(),
		Draft:      a.Draft(),
		Transcript: a.Transcript(),
	}); err != nil {
		return
	}

	wsLog.Info().Msg("Assistant stream connected")

	go h.forward(conn, evs, wsLog)

	for {
		var msg ws.RequestPayload
		if err := conn.ReadRequest(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionSummarize, ws.ActionMindMap, ws.ActionRoadMap:
			if !h.allow(conn, clientIP) {
				continue
			}
			h.handleIntent(conn, sessionID, msg.Action)
		case ws.ActionAsk:
			if !h.allow(conn, clientIP) {
				continue
			}
			if msg.Text != "" {
				if err := h.assistantService.SetDraft(sessionID, msg.Text); err != nil {
					h.writeFailure(conn, err)
					continue
				}
			}
			h.handleIntent(conn, sessionID, msg.Action)
		case ws.ActionDraft:
			if err := h.assistantService.SetDraft(sessionID, msg.Text); err != nil {
				h.writeFailure(conn, err)
			}
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// forward pushes hub events to the client. When the session goes away the
// hub closes evs and the connection is shut so the read loop returns.
func (h *WSHandler) forward(conn *ws.Conn, evs <-chan model.TranscriptEvent, log zerolog.Logger) {
	for ev := range evs {
		if err := conn.WriteTyped(ws.FromTranscriptEvent(ev)); err != nil {
			log.Debug().Err(err).Msg("Stream write failed")
			return
		}
	}
	_ = conn.WriteError("session closed")
	_ = conn.Close()
}

// allow applies the dispatch rate limit shared with the HTTP intent routes.
func (h *WSHandler) allow(conn *ws.Conn, clientIP string) bool {
	if h.limiter == nil || h.limiter.Allow(clientIP) {
		return true
	}
	_ = conn.WriteError(string(response.ErrRateLimitExceeded))
	return false
}

func (h *WSHandler) handleIntent(conn *ws.Conn, sessionID string, action ws.Action) {
	// The task outlives this request; the session owns its cancellation.
	res, err := h.assistantService.RunIntent(context.Background(), sessionID, string(action), false)
	if errors.Is(err, session.ErrEmptyInput) {
		_ = conn.WriteTyped(ws.IgnoredResponse{Event: ws.EventIgnored, Action: action})
		return
	}
	if err != nil {
		h.writeFailure(conn, err)
		return
	}
	_ = conn.WriteTyped(ws.AcceptedResponse{Event: ws.EventAccepted, Task: res.Task, Index: res.Index})
}

func (h *WSHandler) writeFailure(conn *ws.Conn, err error) {
	_, code := classify(err)
	_ = conn.WriteError(string(code))
}
