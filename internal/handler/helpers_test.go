package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/abhyaas/abhyaas-backend/internal/directory"
	"github.com/abhyaas/abhyaas-backend/internal/events"
	"github.com/abhyaas/abhyaas-backend/internal/model"
	"github.com/abhyaas/abhyaas-backend/internal/response"
	"github.com/abhyaas/abhyaas-backend/internal/service"
	"github.com/abhyaas/abhyaas-backend/internal/session"
	"github.com/abhyaas/abhyaas-backend/internal/validator"
)

type fakeGateway struct {
	mu      sync.Mutex
	results map[model.Task]model.TaskResult
	err     error
}

func (g *fakeGateway) Execute(ctx context.Context, req model.TaskRequest) (model.TaskResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return model.TaskResult{}, g.err
	}
	res, ok := g.results[req.Task]
	if !ok {
		return model.TaskResult{}, errors.New("no result for task")
	}
	return res, nil
}

type fakeDirectory map[string]*model.Resource

func (d fakeDirectory) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	res, ok := d[id]
	if !ok {
		return nil, directory.ErrResourceNotFound
	}
	cp := *res
	return &cp, nil
}

type fixture struct {
	gw        *fakeGateway
	hub       *events.Hub
	assistant *service.AssistantService
	quiz      *service.QuizService
	limiter   Limiter
	engine    *gin.Engine
}

type fixtureOption func(*fixture)

func withLimiter(l Limiter) fixtureOption {
	return func(f *fixture) { f.limiter = l }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	log := zerolog.Nop()
	gw := &fakeGateway{results: map[model.Task]model.TaskResult{
		model.TaskSummary: {Kind: model.ResultSummary, Text: "Graphs are nodes and edges."},
		model.TaskMindmap: {Kind: model.ResultMindmap, Text: "graph TD; A-->B"},
		model.TaskQA:      {Kind: model.ResultAnswer, Text: "A tree is an acyclic graph."},
		model.TaskQuiz: {Kind: model.ResultQuiz, Quiz: &model.QuizResponse{
			Quiz: model.QuizMeta{ID: "quiz-1", ResourceID: "res-1"},
			QuizQAs: []model.QuizQA{
				{Question: "Edges connect?", Options: []string{"nodes", "files"}, CorrectAnswer: "nodes"},
			},
		}},
	}}
	dir := fakeDirectory{"res-1": {ID: "res-1", Title: "Graph Theory", URL: "https://example.com/g.pdf"}}

	hub := events.NewHub(nil, log)
	assistants := session.NewRegistry[*session.Assistant](0)
	quizzes := session.NewRegistry[*service.QuizSession](0)
	t.Cleanup(func() {
		assistants.Close()
		quizzes.Close()
		hub.Close()
	})

	f := &fixture{
		gw:        gw,
		hub:       hub,
		assistant: service.NewAssistantService(gw, dir, assistants, hub, nil, log),
		quiz:      service.NewQuizService(gw, dir, quizzes, nil, log),
	}
	for _, opt := range opts {
		opt(f)
	}

	ah := NewAssistantHandler(f.assistant, log)
	qh := NewQuizHandler(f.quiz, log)
	rh := NewResourceHandler(service.NewResourceService(dir, nil), log)
	wh := NewWSHandler(f.assistant, hub, f.limiter, log, nil)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.GET("/api/v1/resources/:resource_id", rh.GetResource)
	r.GET("/api/v1/resources/:resource_id/stats", rh.GetStats)
	r.POST("/api/v1/resources/:resource_id/assistant", ah.OpenSession)
	r.POST("/api/v1/resources/:resource_id/quiz", qh.StartQuiz)
	r.GET("/api/v1/assistant/:session_id", ah.GetSession)
	r.PUT("/api/v1/assistant/:session_id/draft", ah.SetDraft)
	r.POST("/api/v1/assistant/:session_id/dispatch", ah.Dispatch)
	r.POST("/api/v1/assistant/:session_id/summarize", ah.RunIntent(service.IntentSummarize))
	r.POST("/api/v1/assistant/:session_id/mindmap", ah.RunIntent(service.IntentMindMap))
	r.POST("/api/v1/assistant/:session_id/ask", ah.RunIntent(service.IntentAsk))
	r.DELETE("/api/v1/assistant/:session_id", ah.CloseSession)
	r.GET("/api/v1/quiz/:session_id", qh.GetQuiz)
	r.POST("/api/v1/quiz/:session_id/select", qh.SelectAnswer)
	r.POST("/api/v1/quiz/:session_id/submit", qh.Submit)
	r.POST("/api/v1/quiz/:session_id/previous", qh.Previous)
	r.POST("/api/v1/quiz/:session_id/review", qh.StartReview)
	r.POST("/api/v1/quiz/:session_id/results", qh.ReturnToResults)
	r.POST("/api/v1/quiz/:session_id/reset", qh.Reset)
	r.DELETE("/api/v1/quiz/:session_id", qh.EndQuiz)
	r.GET("/ws/v1/assistant/:session_id/stream", wh.AssistantStream)
	f.engine = r
	return f
}

// envelope mirrors response.Response with a typed data field.
type envelope[T any] struct {
	Data  T                   `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func call[T any](t *testing.T, r http.Handler, method, path string, body any) (int, envelope[T]) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

type sessionData struct {
	Session service.AssistantView `json:"session"`
}

type dispatchData struct {
	Dispatch *service.DispatchResult `json:"dispatch"`
	Ignored  bool                    `json:"ignored"`
}

type quizData struct {
	Quiz    service.QuizView      `json:"quiz"`
	Outcome session.SubmitOutcome `json:"outcome"`
	Warning bool                  `json:"warning"`
	Message string                `json:"message"`
}

func openSession(t *testing.T, f *fixture) string {
	t.Helper()
	code, env := call[sessionData](t, f.engine, http.MethodPost, "/api/v1/resources/res-1/assistant", nil)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, env.Data.Session.SessionID)
	return env.Data.Session.SessionID
}
