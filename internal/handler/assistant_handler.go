package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/model"
	"github.com/abhyaas/abhyaas-backend/internal/response"
	"github.com/abhyaas/abhyaas-backend/internal/service"
	"github.com/abhyaas/abhyaas-backend/internal/session"
	"github.com/abhyaas/abhyaas-backend/internal/validator"
)

// AssistantHandler serves the resource assistant session endpoints.
type AssistantHandler struct {
	assistantService *service.AssistantService
	log              zerolog.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(assistantService *service.AssistantService, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		log:              log.With().Str("component", "assistant_handler").Logger(),
	}
}

// OpenSession godoc
// POST /api/v1/resources/:resource_id/assistant
// Opens an assistant session and loads the resource.
func (h *AssistantHandler) OpenSession(c *gin.Context) {
	resourceID, ok := resourceParam(c)
	if !ok {
		return
	}

	v, err := h.assistantService.Open(c.Request.Context(), resourceID)
	if err != nil {
		if !errors.Is(err, service.ErrResourceNotFound) {
			h.log.Error().Err(err).Str("resource_id", resourceID).Msg("Open assistant session failed")
		}
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": v})
}

// GetSession godoc
// GET /api/v1/assistant/:session_id
func (h *AssistantHandler) GetSession(c *gin.Context) {
	v, err := h.assistantService.Get(c.Param("session_id"))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": v})
}

// SetDraft godoc
// PUT /api/v1/assistant/:session_id/draft
func (h *AssistantHandler) SetDraft(c *gin.Context) {
	var req model.DraftRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id := c.Param("session_id")
	if err := h.assistantService.SetDraft(id, req.Text); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"draft": req.Text})
}

// Dispatch godoc
// POST /api/v1/assistant/:session_id/dispatch?wait=true
// Runs a raw task. Empty input is ignored rather than rejected.
func (h *AssistantHandler) Dispatch(c *gin.Context) {
	var req model.DispatchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.assistantService.Dispatch(c.Request.Context(), c.Param("session_id"), req, waitParam(c))
	h.writeDispatch(c, res, err)
}

// RunIntent godoc
// POST /api/v1/assistant/:session_id/{summarize,mindmap,roadmap,ask}?wait=true
// Returns a handler bound to one of the fixed intents.
func (h *AssistantHandler) RunIntent(intent string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.assistantService.RunIntent(c.Request.Context(), c.Param("session_id"), intent, waitParam(c))
		h.writeDispatch(c, res, err)
	}
}

func (h *AssistantHandler) writeDispatch(c *gin.Context, res *service.DispatchResult, err error) {
	if errors.Is(err, session.ErrEmptyInput) {
		response.Success(c, http.StatusOK, gin.H{"ignored": true})
		return
	}
	if err != nil {
		failFromError(c, err)
		return
	}

	status := http.StatusAccepted
	if res.Outcome != "" {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"dispatch": res})
}

// CloseSession godoc
// DELETE /api/v1/assistant/:session_id
// Tears the session down. Outstanding tasks are dropped.
func (h *AssistantHandler) CloseSession(c *gin.Context) {
	if err := h.assistantService.Close(c.Param("session_id")); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "session closed"})
}

// resourceParam reads :resource_id and rejects blanks.
func resourceParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("resource_id"))
	if id == "" || len(id) > 128 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id, true
}

func waitParam(c *gin.Context) bool {
	wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	return wait
}
