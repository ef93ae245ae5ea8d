package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/directory"
	"github.com/abhyaas/abhyaas-backend/internal/model"
	"github.com/abhyaas/abhyaas-backend/internal/session"
)

const taskLogTimeout = 2 * time.Second

// Intent names accepted by RunIntent.
const (
	IntentSummarize = "summarize"
	IntentMindMap   = "mindmap"
	IntentRoadMap   = "roadmap"
	IntentAsk       = "ask"
)

// AssistantService owns resource assistant sessions.
type AssistantService struct {
	gateway   session.Gateway
	directory directory.Reader
	sessions  *session.Registry[*session.Assistant]
	events    EventPublisher
	taskLog   TaskLogSink
	log       zerolog.Logger
}

// NewAssistantService creates a new AssistantService. events and taskLog may
// be nil. When dir can persist summaries, generated summaries are written
// back so later sessions start with a cache hit.
func NewAssistantService(
	gw session.Gateway,
	dir directory.Reader,
	sessions *session.Registry[*session.Assistant],
	events EventPublisher,
	taskLog TaskLogSink,
	log zerolog.Logger,
) *AssistantService {
	s := &AssistantService{
		gateway:   gw,
		directory: dir,
		sessions:  sessions,
		events:    events,
		taskLog:   taskLog,
		log:       log.With().Str("component", "assistant_service").Logger(),
	}
	if w, ok := dir.(directory.SummaryWriter); ok {
		s.gateway = &summaryPersister{next: gw, writer: w, log: s.log}
	}
	return s
}

// AssistantView is the full client-facing state of one session.
type AssistantView struct {
	SessionID   string                `json:"session_id"`
	Resource    model.ResourceContext `json:"resource"`
	LoadState   session.LoadState     `json:"load_state"`
	Draft       string                `json:"draft"`
	Transcript  []model.ChatMessage   `json:"transcript"`
	Outstanding int                   `json:"outstanding"`
}

// DispatchResult describes an accepted dispatch.
type DispatchResult struct {
	Task    model.Task        `json:"task"`
	Index   int               `json:"index"`
	Outcome model.TaskOutcome `json:"outcome,omitempty"`
}

// Open creates a session for resourceID and loads the resource once. A
// missing resource removes the session again and returns ErrResourceNotFound.
func (s *AssistantService) Open(ctx context.Context, resourceID string) (*AssistantView, error) {
	id := uuid.New().String()

	opts := []session.AssistantOption{
		session.WithLogger(s.log.With().Str("session_id", id).Logger()),
		session.WithTaskReporter(s.reportTask),
	}
	if s.events != nil {
		opts = append(opts,
			session.WithListener(s.events.Publish),
			session.WithCloseHook(func() { s.events.DropSession(id) }),
		)
	}

	a := session.NewAssistant(id, resourceID, s.gateway, s.directory, opts...)
	s.sessions.Put(id, a)

	if _, err := a.Load(ctx); err != nil {
		_ = s.sessions.Remove(id)
		if errors.Is(err, directory.ErrResourceNotFound) {
			s.log.Info().Str("resource_id", resourceID).Msg("Assistant opened for unknown resource")
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, resourceID)
		}
		return nil, fmt.Errorf("load resource %s: %w", resourceID, err)
	}

	s.log.Info().Str("session_id", id).Str("resource_id", resourceID).Msg("Assistant session opened")
	return view(a), nil
}

// Get returns the current state of a session.
func (s *AssistantService) Get(id string) (*AssistantView, error) {
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return view(a), nil
}

// SetDraft replaces the compose-box text.
func (s *AssistantService) SetDraft(id, text string) error {
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	return a.SetDraft(text)
}

// Dispatch runs a raw task request. With wait set, it blocks until the
// placeholder resolved or ctx ended; the task itself keeps running either way.
func (s *AssistantService) Dispatch(ctx context.Context, id string, req model.DispatchRequest, wait bool) (*DispatchResult, error) {
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	h, err := a.Dispatch(ctx, session.Request{Task: req.Task, Text: req.Text, Input: req.Input})
	if err != nil {
		return nil, err
	}
	return s.result(ctx, h, wait), nil
}

// RunIntent runs one of the fixed assistant intents.
func (s *AssistantService) RunIntent(ctx context.Context, id, intent string, wait bool) (*DispatchResult, error) {
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var h *session.Handle
	switch strings.ToLower(intent) {
	case IntentSummarize:
		h, err = a.Summarize(ctx)
	case IntentMindMap:
		h, err = a.MindMap(ctx)
	case IntentRoadMap:
		h, err = a.RoadMap(ctx)
	case IntentAsk:
		h, err = a.Ask(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
	}
	if err != nil {
		return nil, err
	}
	return s.result(ctx, h, wait), nil
}

func (s *AssistantService) result(ctx context.Context, h *session.Handle, wait bool) *DispatchResult {
	res := &DispatchResult{Task: h.Task, Index: h.Index, Outcome: h.Outcome()}
	if wait {
		if out, err := h.Wait(ctx); err == nil {
			res.Outcome = out
		}
	}
	return res
}

// Close tears a session down. Outstanding tasks are dropped.
func (s *AssistantService) Close(id string) error {
	if err := s.sessions.Remove(id); err != nil {
		return ErrSessionNotFound
	}
	s.log.Info().Str("session_id", id).Msg("Assistant session closed")
	return nil
}

// Lookup exposes a live session to the streaming handlers.
func (s *AssistantService) Lookup(id string) (*session.Assistant, error) {
	return s.lookup(id)
}

// Count returns the number of tracked assistant sessions.
func (s *AssistantService) Count() int { return s.sessions.Len() }

func (s *AssistantService) lookup(id string) (*session.Assistant, error) {
	a, err := s.sessions.Get(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return a, nil
}

func (s *AssistantService) reportTask(l model.TaskLog) {
	if s.taskLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), taskLogTimeout)
	defer cancel()
	s.taskLog.Enqueue(ctx, l)
}

func view(a *session.Assistant) *AssistantView {
	return &AssistantView{
		SessionID:   a.ID(),
		Resource:    a.Context(),
		LoadState:   a.LoadState(),
		Draft:       a.Draft(),
		Transcript:  a.Transcript(),
		Outstanding: a.Outstanding(),
	}
}

// summaryPersister writes successful summaries back to the directory.
type summaryPersister struct {
	next   session.Gateway
	writer directory.SummaryWriter
	log    zerolog.Logger
}

func (p *summaryPersister) Execute(ctx context.Context, req model.TaskRequest) (model.TaskResult, error) {
	res, err := p.next.Execute(ctx, req)
	if err != nil || req.Task != model.TaskSummary || res.Kind != model.ResultSummary || res.Text == "" {
		return res, err
	}
	if wErr := p.writer.SaveSummary(ctx, req.ResourceID, res.Text); wErr != nil {
		p.log.Warn().Err(wErr).Str("resource_id", req.ResourceID).Msg("Persist summary failed")
	}
	return res, nil
}
