package websocket

import "github.com/abhyaas/abhyaas-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSummarize Action = "summarize"
	ActionMindMap   Action = "mindmap"
	ActionRoadMap   Action = "roadmap"
	ActionAsk       Action = "ask"
	ActionDraft     Action = "draft"
	ActionPing      Action = "ping"
)

// RequestPayload is every client message. Text is only read for draft and,
// when set, for ask (it replaces the draft before dispatching).
type RequestPayload struct {
	Action Action `json:"action"`
	Text   string `json:"text,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventAppended Event = "appended"
	EventResolved Event = "resolved"
	EventAccepted Event = "accepted"
	EventIgnored  Event = "ignored"
	EventPong     Event = "pong"
	EventError    Event = "error"
)

// SnapshotResponse is sent once right after the upgrade.
type SnapshotResponse struct {
	Event      Event                 `json:"event"`
	Resource   model.ResourceContext `json:"resource"`
	Draft      string                `json:"draft"`
	Transcript []model.ChatMessage   `json:"transcript"`
}

// TranscriptResponse mirrors one transcript mutation.
type TranscriptResponse struct {
	Event   Event             `json:"event"`
	Index   int               `json:"index"`
	Message model.ChatMessage `json:"message"`
}

// AcceptedResponse acknowledges a dispatch with its placeholder index.
type AcceptedResponse struct {
	Event Event      `json:"event"`
	Task  model.Task `json:"task"`
	Index int        `json:"index"`
}

// IgnoredResponse reports a dispatch that had nothing to send.
type IgnoredResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// FromTranscriptEvent maps a hub event onto the wire shape.
func FromTranscriptEvent(ev model.TranscriptEvent) TranscriptResponse {
	e := EventAppended
	if ev.Type == model.EventResolved {
		e = EventResolved
	}
	return TranscriptResponse{Event: e, Index: ev.Index, Message: ev.Message}
}
