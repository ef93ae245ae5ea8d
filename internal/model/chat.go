package model

// Sender identifies who authored a transcript message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// MessageKind drives how a client renders a message.
type MessageKind string

const (
	KindText    MessageKind = "text"
	KindSummary MessageKind = "summary"
	KindMindmap MessageKind = "mindmap"
	KindRoadmap MessageKind = "roadmap"
	KindQA      MessageKind = "qa"
)

// KindOf maps a decoded gateway result onto the message kind shown to the user.
func KindOf(k ResultKind) MessageKind {
	switch k {
	case ResultSummary:
		return KindSummary
	case ResultMindmap:
		return KindMindmap
	case ResultRoadmap:
		return KindRoadmap
	case ResultAnswer:
		return KindQA
	default:
		return KindText
	}
}

// ChatMessage is one transcript entry. ID is only set for mindmaps, where the
// renderer keys a diagram by it.
type ChatMessage struct {
	Sender  Sender      `json:"sender"`
	Text    string      `json:"text"`
	Kind    MessageKind `json:"kind"`
	ID      string      `json:"id,omitempty"`
	Pending bool        `json:"pending,omitempty"`
}

// DispatchRequest is the payload for a raw dispatch.
type DispatchRequest struct {
	Task  Task   `json:"task" binding:"required,task"`
	Text  string `json:"text" binding:"max=4000"`
	Input string `json:"input" binding:"max=4000"`
}

// DraftRequest replaces the compose-box text.
type DraftRequest struct {
	Text string `json:"text" binding:"max=4000"`
}

// TranscriptEventType says whether a message was added or a placeholder resolved.
type TranscriptEventType string

const (
	EventAppended TranscriptEventType = "appended"
	EventResolved TranscriptEventType = "resolved"
)

// TranscriptEvent is published for every transcript mutation.
type TranscriptEvent struct {
	SessionID string              `json:"session_id"`
	Type      TranscriptEventType `json:"type"`
	Index     int                 `json:"index"`
	Message   ChatMessage         `json:"message"`
}
