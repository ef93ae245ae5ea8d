package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/response"
	"github.com/abhyaas/abhyaas-backend/internal/service"
)

// ResourceHandler serves resource metadata lookups.
type ResourceHandler struct {
	resourceService *service.ResourceService
	log             zerolog.Logger
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(resourceService *service.ResourceService, log zerolog.Logger) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		log:             log.With().Str("component", "resource_handler").Logger(),
	}
}

// GetResource godoc
// GET /api/v1/resources/:resource_id
func (h *ResourceHandler) GetResource(c *gin.Context) {
	id, ok := resourceParam(c)
	if !ok {
		return
	}

	rc, err := h.resourceService.Get(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrResourceNotFound) {
			h.log.Error().Err(err).Str("resource_id", id).Msg("Resource lookup failed")
			response.Fail(c, http.StatusServiceUnavailable, response.ErrUnavailable)
			return
		}
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"resource": rc})
}

// GetStats godoc
// GET /api/v1/resources/:resource_id/stats
// Counts logged AI task outcomes for the resource.
func (h *ResourceHandler) GetStats(c *gin.Context) {
	id, ok := resourceParam(c)
	if !ok {
		return
	}

	stats, err := h.resourceService.Stats(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("resource_id", id).Msg("Task stats failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
