package service

import (
	"context"
	"errors"
	"sync"

	"github.com/abhyaas/abhyaas-backend/internal/directory"
	"github.com/abhyaas/abhyaas-backend/internal/model"
)

type stubGateway struct {
	mu      sync.Mutex
	calls   []model.TaskRequest
	results map[model.Task]model.TaskResult
	err     error
}

func (g *stubGateway) Execute(ctx context.Context, req model.TaskRequest) (model.TaskResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return model.TaskResult{}, g.err
	}
	res, ok := g.results[req.Task]
	if !ok {
		return model.TaskResult{}, errors.New("no stub for task")
	}
	return res, nil
}

func (g *stubGateway) count(task model.Task) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Task == task {
			n++
		}
	}
	return n
}

type stubDirectory struct {
	mu        sync.Mutex
	resources map[string]*model.Resource
	saved     map[string]string
}

func (d *stubDirectory) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, ok := d.resources[id]
	if !ok {
		return nil, directory.ErrResourceNotFound
	}
	cp := *res
	return &cp, nil
}

// persistingDirectory also implements directory.SummaryWriter.
type persistingDirectory struct {
	stubDirectory
}

func (d *persistingDirectory) SaveSummary(ctx context.Context, id, summary string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saved == nil {
		d.saved = map[string]string{}
	}
	d.saved[id] = summary
	return nil
}

type recordingSink struct {
	mu   sync.Mutex
	logs []model.TaskLog
}

func (s *recordingSink) Enqueue(ctx context.Context, l model.TaskLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
}

func (s *recordingSink) snapshot() []model.TaskLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TaskLog, len(s.logs))
	copy(out, s.logs)
	return out
}

func goResource() map[string]*model.Resource {
	return map[string]*model.Resource{
		"r1": {ID: "r1", Title: "Concurrency in Go", URL: "https://cdn.example/go.mp4"},
	}
}

func quizResult() model.TaskResult {
	return model.TaskResult{
		Kind: model.ResultQuiz,
		Quiz: &model.QuizResponse{
			Message: "Quiz created",
			Quiz:    model.QuizMeta{ID: "quiz-1", ResourceID: "r1"},
			QuizQAs: []model.QuizQA{
				{ID: "a", QuizID: "quiz-1", Question: "Keyword to start a goroutine?", Options: []string{"go", "async"}, CorrectAnswer: "go"},
				{ID: "b", QuizID: "quiz-1", Question: "Unbuffered send blocks until?", Options: []string{"received", "never"}, CorrectAnswer: "received"},
			},
		},
	}
}
