package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhyaas/abhyaas-backend/internal/directory"
	"github.com/abhyaas/abhyaas-backend/internal/events"
	"github.com/abhyaas/abhyaas-backend/internal/model"
	"github.com/abhyaas/abhyaas-backend/internal/session"
)

func newAssistantService(t *testing.T, gw session.Gateway, dir directory.Reader) (*AssistantService, *events.Hub, *recordingSink) {
	t.Helper()
	hub := events.NewHub(nil, zerolog.Nop())
	sink := &recordingSink{}
	reg := session.NewRegistry[*session.Assistant](0)
	t.Cleanup(func() {
		reg.Close()
		hub.Close()
	})
	return NewAssistantService(gw, dir, reg, hub, sink, zerolog.Nop()), hub, sink
}

func TestAssistantOpen(t *testing.T) {
	svc, _, _ := newAssistantService(t, &stubGateway{}, &stubDirectory{resources: goResource()})

	v, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotEmpty(t, v.SessionID)
	assert.Equal(t, session.LoadDone, v.LoadState)
	assert.Equal(t, "Concurrency in Go", v.Resource.Title)
	assert.Equal(t, "https://cdn.example/go.mp4", v.Resource.URL)
	assert.Empty(t, v.Transcript)
	assert.Equal(t, 1, svc.Count())
}

func TestAssistantOpenUnknownResource(t *testing.T) {
	svc, _, _ := newAssistantService(t, &stubGateway{}, &stubDirectory{resources: goResource()})

	_, err := svc.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.Zero(t, svc.Count())
}

func TestAssistantIntentsAndDraft(t *testing.T) {
	gw := &stubGateway{results: map[model.Task]model.TaskResult{
		model.TaskSummary: {Kind: model.ResultSummary, Text: "Goroutines are cheap."},
		model.TaskQA:      {Kind: model.ResultAnswer, Text: "A typed conduit."},
	}}
	svc, hub, sink := newAssistantService(t, gw, &stubDirectory{resources: goResource()})
	ctx := context.Background()

	v, err := svc.Open(ctx, "r1")
	require.NoError(t, err)
	id := v.SessionID

	evs, cancel := hub.Subscribe(id)
	defer cancel()

	res, err := svc.RunIntent(ctx, id, IntentSummarize, true)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeResolved, res.Outcome)
	assert.Equal(t, 1, res.Index)

	res, err = svc.RunIntent(ctx, id, "SUMMARIZE", true)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCached, res.Outcome)
	assert.Equal(t, 1, gw.count(model.TaskSummary))

	require.NoError(t, svc.SetDraft(id, "what is a channel"))
	res, err = svc.RunIntent(ctx, id, IntentAsk, true)
	require.NoError(t, err)
	assert.Equal(t, model.TaskQA, res.Task)

	v, err = svc.Get(id)
	require.NoError(t, err)
	assert.Empty(t, v.Draft)
	require.Len(t, v.Transcript, 6)
	assert.Equal(t, "A typed conduit.", v.Transcript[5].Text)
	assert.Equal(t, model.KindQA, v.Transcript[5].Kind)

	// 3 dispatches, each append user + placeholder then resolve
	assert.Len(t, evs, 9)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	outcomes := []model.TaskOutcome{}
	for _, l := range sink.snapshot() {
		outcomes = append(outcomes, l.Outcome)
	}
	assert.ElementsMatch(t, []model.TaskOutcome{model.OutcomeResolved, model.OutcomeCached, model.OutcomeResolved}, outcomes)

	_, err = svc.RunIntent(ctx, id, "poem", false)
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestAssistantDispatchEmptyInput(t *testing.T) {
	svc, _, _ := newAssistantService(t, &stubGateway{}, &stubDirectory{resources: goResource()})
	v, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), v.SessionID, model.DispatchRequest{Task: model.TaskQA, Text: "  "}, false)
	assert.ErrorIs(t, err, session.ErrEmptyInput)
}

func TestAssistantCloseDropsSubscribers(t *testing.T) {
	svc, hub, _ := newAssistantService(t, &stubGateway{}, &stubDirectory{resources: goResource()})
	v, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)

	ch, _ := hub.Subscribe(v.SessionID)
	require.NoError(t, svc.Close(v.SessionID))

	_, open := <-ch
	assert.False(t, open)
	assert.ErrorIs(t, svc.Close(v.SessionID), ErrSessionNotFound)
	_, err = svc.Get(v.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAssistantPersistsGeneratedSummary(t *testing.T) {
	gw := &stubGateway{results: map[model.Task]model.TaskResult{
		model.TaskSummary: {Kind: model.ResultSummary, Text: "Persist me."},
	}}
	dir := &persistingDirectory{stubDirectory{resources: goResource()}}
	svc, _, _ := newAssistantService(t, gw, dir)

	v, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)
	_, err = svc.RunIntent(context.Background(), v.SessionID, IntentSummarize, true)
	require.NoError(t, err)

	dir.mu.Lock()
	defer dir.mu.Unlock()
	assert.Equal(t, "Persist me.", dir.saved["r1"])
}
