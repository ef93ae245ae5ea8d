package model

import "time"

// Task is a named operation executed by the AI gateway.
type Task string

const (
	TaskSummary Task = "summary"
	TaskMindmap Task = "mindmap"
	TaskRoadmap Task = "roadmap"
	TaskQA      Task = "qa"
	TaskQuiz    Task = "quiz"
)

// Valid reports whether t is a task the gateway understands.
func (t Task) Valid() bool {
	switch t {
	case TaskSummary, TaskMindmap, TaskRoadmap, TaskQA, TaskQuiz:
		return true
	}
	return false
}

// TaskRequest is the gateway request body.
type TaskRequest struct {
	ResourceID string `json:"resourceId"`
	Task       Task   `json:"task"`
	Question   string `json:"question,omitempty"`
}

// ResultKind tags the shape a gateway response decoded into.
type ResultKind string

const (
	ResultSummary ResultKind = "summary"
	ResultMindmap ResultKind = "mindmap"
	ResultRoadmap ResultKind = "roadmap"
	ResultAnswer  ResultKind = "answer"
	ResultQuiz    ResultKind = "quiz"
)

// TaskResult is the tagged variant returned by the gateway client. Text is set
// for every kind except ResultQuiz, which carries Quiz instead.
type TaskResult struct {
	Kind ResultKind
	Text string
	Quiz *QuizResponse
}

// TaskOutcome enumerates how a dispatched task ended.
type TaskOutcome string

const (
	OutcomeResolved TaskOutcome = "RESOLVED"
	OutcomeCached   TaskOutcome = "CACHED"
	OutcomeFailed   TaskOutcome = "FAILED"
	OutcomeDropped  TaskOutcome = "DROPPED"
)

// TaskLog is one dispatched task as queued for the task log worker.
type TaskLog struct {
	SessionID  string      `json:"session_id"`
	ResourceID string      `json:"resource_id"`
	Task       Task        `json:"task"`
	Outcome    TaskOutcome `json:"outcome"`
	DurationMs int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
	FinishedAt time.Time   `json:"finished_at"`
	// Attempts counts failed persists. Queue-only, never stored.
	Attempts   int         `json:"attempts,omitempty"`
}
