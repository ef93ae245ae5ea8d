package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// Fixed assistant texts.
const (
	PlaceholderText = "🧠 Abhyaas AI is thinking..."
	FailureText     = "❌ Something went wrong while processing your request."

	SummarizeText = "summarise this"
	MindMapText   = "Generate a mindmap"
	RoadMapText   = "Generate a Road Map"
)

// Assistant errors
var (
	ErrEmptyInput    = errors.New("dispatch input is empty")
	ErrSessionClosed = errors.New("session is closed")
	ErrUnknownTask   = errors.New("unknown task")
)

// Gateway executes a task against a resource.
type Gateway interface {
	Execute(ctx context.Context, req model.TaskRequest) (model.TaskResult, error)
}

// Directory resolves resource metadata.
type Directory interface {
	GetResource(ctx context.Context, id string) (*model.Resource, error)
}

// Request describes one dispatch. Text is what the transcript shows; Input,
// when set, overrides it as the text sent to the gateway.
type Request struct {
	Task  model.Task
	Text  string
	Input string
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithListener registers fn for every transcript event. fn runs while the
// session lock is held and must not call back into the Assistant.
func WithListener(fn func(model.TranscriptEvent)) AssistantOption {
	return func(a *Assistant) { a.listeners = append(a.listeners, fn) }
}

// WithTaskReporter registers fn to receive one TaskLog per finished dispatch.
func WithTaskReporter(fn func(model.TaskLog)) AssistantOption {
	return func(a *Assistant) { a.report = fn }
}

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) AssistantOption {
	return func(a *Assistant) { a.log = log }
}

// WithCloseHook registers fn to run once after Close, outside the lock.
func WithCloseHook(fn func()) AssistantOption {
	return func(a *Assistant) { a.onClose = append(a.onClose, fn) }
}

// WithIDGenerator overrides how mindmap identifiers are minted.
func WithIDGenerator(fn func() string) AssistantOption {
	return func(a *Assistant) { a.newID = fn }
}

// Assistant owns one conversation transcript about one resource.
type Assistant struct {
	id         string
	resourceID string
	gateway    Gateway
	loader     *Loader[model.ResourceContext]

	mu         sync.Mutex
	rc         model.ResourceContext
	transcript []model.ChatMessage
	draft      string
	pending    map[*Handle]struct{}
	closed     bool

	listeners []func(model.TranscriptEvent)
	onClose   []func()
	report    func(model.TaskLog)
	newID     func() string
	log       zerolog.Logger
}

// NewAssistant creates a session for resourceID. The resource is not fetched
// until Load is called.
func NewAssistant(id, resourceID string, gw Gateway, dir Directory, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		id:         id,
		resourceID: resourceID,
		gateway:    gw,
		rc:         model.ResourceContext{ID: resourceID},
		pending:    make(map[*Handle]struct{}),
		newID:      func() string { return uuid.New().String() },
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.loader = NewLoader(func(ctx context.Context) (model.ResourceContext, error) {
		res, err := dir.GetResource(ctx, resourceID)
		if err != nil {
			return model.ResourceContext{}, err
		}
		rc := model.ContextOf(res)
		rc.ID = resourceID

		a.mu.Lock()
		// A summary produced before the load finished stays cached.
		if rc.Summary == "" {
			rc.Summary = a.rc.Summary
		}
		a.rc = rc
		a.mu.Unlock()
		return rc, nil
	})
	return a
}

// ID returns the session id.
func (a *Assistant) ID() string { return a.id }

// ResourceID returns the resource this session is about.
func (a *Assistant) ResourceID() string { return a.resourceID }

// Load fetches the resource exactly once per session.
func (a *Assistant) Load(ctx context.Context) (model.ResourceContext, error) {
	return a.loader.Load(ctx)
}

// LoadState reports the resource load progress.
func (a *Assistant) LoadState() LoadState { return a.loader.State() }

// Context returns the current resource context.
func (a *Assistant) Context() model.ResourceContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rc
}

// Transcript returns a copy of the transcript.
func (a *Assistant) Transcript() []model.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.ChatMessage, len(a.transcript))
	copy(out, a.transcript)
	return out
}

// Draft returns the compose-box text.
func (a *Assistant) Draft() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft
}

// SetDraft replaces the compose-box text. Allowed while tasks are outstanding.
func (a *Assistant) SetDraft(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrSessionClosed
	}
	a.draft = text
	return nil
}

// Summarize dispatches the summary task.
func (a *Assistant) Summarize(ctx context.Context) (*Handle, error) {
	return a.Dispatch(ctx, Request{Task: model.TaskSummary, Text: SummarizeText})
}

// MindMap dispatches the mindmap task.
func (a *Assistant) MindMap(ctx context.Context) (*Handle, error) {
	return a.Dispatch(ctx, Request{Task: model.TaskMindmap, Text: MindMapText})
}

// RoadMap dispatches the roadmap task.
func (a *Assistant) RoadMap(ctx context.Context) (*Handle, error) {
	return a.Dispatch(ctx, Request{Task: model.TaskRoadmap, Text: RoadMapText})
}

// Ask sends the compose-box text as a free-form question and clears the draft.
func (a *Assistant) Ask(ctx context.Context) (*Handle, error) {
	return a.dispatch(ctx, Request{Task: model.TaskQA}, true)
}

// Dispatch appends the user message and a placeholder, then resolves the
// placeholder from the summary cache or the gateway. Dispatches are not
// serialized: resolutions may land in any order.
func (a *Assistant) Dispatch(ctx context.Context, req Request) (*Handle, error) {
	return a.dispatch(ctx, req, false)
}

func (a *Assistant) dispatch(ctx context.Context, req Request, fromDraft bool) (*Handle, error) {
	switch req.Task {
	case model.TaskSummary, model.TaskMindmap, model.TaskRoadmap, model.TaskQA:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, req.Task)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrSessionClosed
	}

	if fromDraft {
		req.Text = strings.TrimSpace(a.draft)
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		input = strings.TrimSpace(req.Text)
	}
	if input == "" {
		a.mu.Unlock()
		return nil, ErrEmptyInput
	}
	visible := req.Text
	if strings.TrimSpace(visible) == "" {
		visible = input
	}
	if fromDraft {
		a.draft = ""
	}

	a.appendLocked(model.ChatMessage{Sender: model.SenderUser, Text: visible, Kind: model.KindText})
	idx := a.appendLocked(model.ChatMessage{
		Sender:  model.SenderAssistant,
		Text:    PlaceholderText,
		Kind:    model.KindText,
		Pending: true,
	})

	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := newHandle(req.Task, idx, callCtx, cancel)

	if req.Task == model.TaskSummary && a.rc.Summary != "" {
		a.replaceLocked(idx, model.ChatMessage{
			Sender: model.SenderAssistant,
			Text:   a.rc.Summary,
			Kind:   model.KindSummary,
		})
		a.mu.Unlock()
		a.emitReport(h.Task, model.OutcomeCached, time.Now(), nil)
		h.finish(model.OutcomeCached)
		return h, nil
	}

	a.pending[h] = struct{}{}
	a.mu.Unlock()

	taskReq := model.TaskRequest{ResourceID: a.resourceID, Task: req.Task}
	if req.Task == model.TaskQA {
		taskReq.Question = input
	}
	go a.resolve(h, taskReq)
	return h, nil
}

func (a *Assistant) resolve(h *Handle, req model.TaskRequest) {
	start := time.Now()
	res, err := a.gateway.Execute(h.ctx, req)
	if err == nil && res.Kind == model.ResultQuiz {
		err = fmt.Errorf("unexpected %s result for %s task", res.Kind, req.Task)
	}

	a.mu.Lock()
	delete(a.pending, h)
	if a.closed || h.ctx.Err() != nil {
		a.mu.Unlock()
		a.log.Debug().Str("task", string(req.Task)).Msg("Dropped late task resolution")
		a.emitReport(h.Task, model.OutcomeDropped, start, err)
		h.finish(model.OutcomeDropped)
		return
	}

	outcome := model.OutcomeResolved
	msg := model.ChatMessage{Sender: model.SenderAssistant}
	if err != nil {
		outcome = model.OutcomeFailed
		msg.Text = FailureText
		msg.Kind = model.KindText
	} else {
		msg.Text = res.Text
		msg.Kind = model.KindOf(res.Kind)
		if res.Kind == model.ResultMindmap {
			msg.ID = a.newID()
		}
		if req.Task == model.TaskSummary && res.Kind == model.ResultSummary && res.Text != "" {
			a.rc.Summary = res.Text
		}
	}
	a.replaceLocked(h.Index, msg)
	a.mu.Unlock()

	if err != nil {
		a.log.Warn().Err(err).Str("task", string(req.Task)).Msg("Gateway task failed")
	}
	a.emitReport(h.Task, outcome, start, err)
	h.finish(outcome)
}

// Close cancels every outstanding dispatch. Late resolutions are dropped.
// It is safe to call multiple times.
func (a *Assistant) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	for h := range a.pending {
		h.cancel()
	}
	a.mu.Unlock()

	for _, fn := range a.onClose {
		fn()
	}
}

// Outstanding returns how many dispatches are still waiting on the gateway.
func (a *Assistant) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// appendLocked must be called with mu held.
func (a *Assistant) appendLocked(m model.ChatMessage) int {
	a.transcript = append(a.transcript, m)
	idx := len(a.transcript) - 1
	a.emitLocked(model.EventAppended, idx, m)
	return idx
}

// replaceLocked must be called with mu held.
func (a *Assistant) replaceLocked(idx int, m model.ChatMessage) {
	a.transcript[idx] = m
	a.emitLocked(model.EventResolved, idx, m)
}

func (a *Assistant) emitLocked(t model.TranscriptEventType, idx int, m model.ChatMessage) {
	if len(a.listeners) == 0 {
		return
	}
	ev := model.TranscriptEvent{SessionID: a.id, Type: t, Index: idx, Message: m}
	for _, fn := range a.listeners {
		fn(ev)
	}
}

func (a *Assistant) emitReport(task model.Task, outcome model.TaskOutcome, start time.Time, err error) {
	if a.report == nil {
		return
	}
	entry := model.TaskLog{
		SessionID:  a.id,
		ResourceID: a.resourceID,
		Task:       task,
		Outcome:    outcome,
		DurationMs: time.Since(start).Milliseconds(),
		FinishedAt: time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	a.report(entry)
}
