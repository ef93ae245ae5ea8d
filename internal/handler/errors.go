package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhyaas/abhyaas-backend/internal/response"
	"github.com/abhyaas/abhyaas-backend/internal/service"
	"github.com/abhyaas/abhyaas-backend/internal/session"
)

// failFromError maps service and session errors onto the response envelope.
func failFromError(c *gin.Context, err error) {
	status, code := classify(err)
	response.Fail(c, status, code)
}

func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrResourceNotFound):
		return http.StatusNotFound, response.ErrResourceNotFound
	case errors.Is(err, service.ErrInvalidQuiz):
		return http.StatusBadGateway, response.ErrInvalidQuiz
	case errors.Is(err, service.ErrQuizNotCreated):
		return http.StatusBadGateway, response.ErrQuizNotCreated
	case errors.Is(err, service.ErrUnknownIntent), errors.Is(err, session.ErrUnknownTask):
		return http.StatusBadRequest, response.ErrUnknownTask
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone, response.ErrSessionClosed
	case errors.Is(err, session.ErrEmptyInput):
		return http.StatusBadRequest, response.ErrEmptyInput
	case errors.Is(err, session.ErrWrongPhase):
		return http.StatusConflict, response.ErrWrongPhase
	case errors.Is(err, session.ErrNoPrevious):
		return http.StatusConflict, response.ErrNoPrevious
	case errors.Is(err, session.ErrUnknownOption):
		return http.StatusBadRequest, response.ErrUnknownOption
	case errors.Is(err, session.ErrEmptyQuestionSet):
		return http.StatusBadGateway, response.ErrNoQuestions
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}
