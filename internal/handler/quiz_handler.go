package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/model"
	"github.com/abhyaas/abhyaas-backend/internal/response"
	"github.com/abhyaas/abhyaas-backend/internal/service"
	"github.com/abhyaas/abhyaas-backend/internal/session"
	"github.com/abhyaas/abhyaas-backend/internal/validator"
)

// QuizHandler serves quiz session endpoints.
type QuizHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// StartQuiz godoc
// POST /api/v1/resources/:resource_id/quiz
// Generates a quiz for the resource and opens a session on it.
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	resourceID, ok := resourceParam(c)
	if !ok {
		return
	}

	v, err := h.quizService.Start(c.Request.Context(), resourceID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotCreated) {
			response.FailWithMessage(c, http.StatusBadGateway, response.ErrQuizNotCreated, err.Error())
			return
		}
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": v})
}

// GetQuiz godoc
// GET /api/v1/quiz/:session_id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	v, err := h.quizService.Get(c.Param("session_id"))
	h.write(c, v, err)
}

// SelectAnswer godoc
// POST /api/v1/quiz/:session_id/select
func (h *QuizHandler) SelectAnswer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	v, err := h.quizService.SelectAnswer(c.Param("session_id"), req.Answer)
	h.write(c, v, err)
}

// Submit godoc
// POST /api/v1/quiz/:session_id/submit
// A blank submit on the last question leaves the state untouched and carries
// the warning text instead.
func (h *QuizHandler) Submit(c *gin.Context) {
	v, outcome, err := h.quizService.Submit(c.Param("session_id"))
	if err != nil {
		failFromError(c, err)
		return
	}

	body := gin.H{"quiz": v, "outcome": outcome}
	if outcome == session.OutcomeMissingAnswer {
		body["warning"] = true
		body["message"] = session.MissingAnswerWarning
	}
	response.Success(c, http.StatusOK, body)
}

// Previous godoc
// POST /api/v1/quiz/:session_id/previous
func (h *QuizHandler) Previous(c *gin.Context) {
	v, err := h.quizService.Previous(c.Param("session_id"))
	h.write(c, v, err)
}

// Reset godoc
// POST /api/v1/quiz/:session_id/reset
func (h *QuizHandler) Reset(c *gin.Context) {
	v, err := h.quizService.Reset(c.Param("session_id"))
	h.write(c, v, err)
}

// StartReview godoc
// POST /api/v1/quiz/:session_id/review
func (h *QuizHandler) StartReview(c *gin.Context) {
	v, err := h.quizService.StartReview(c.Param("session_id"))
	h.write(c, v, err)
}

// ReturnToResults godoc
// POST /api/v1/quiz/:session_id/results
func (h *QuizHandler) ReturnToResults(c *gin.Context) {
	v, err := h.quizService.ReturnToResults(c.Param("session_id"))
	h.write(c, v, err)
}

// EndQuiz godoc
// DELETE /api/v1/quiz/:session_id
func (h *QuizHandler) EndQuiz(c *gin.Context) {
	if err := h.quizService.End(c.Param("session_id")); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "quiz ended"})
}

func (h *QuizHandler) write(c *gin.Context, v *service.QuizView, err error) {
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": v})
}
