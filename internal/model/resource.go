package model

import "time"

// Resource is a learning resource (video or PDF) as stored in the directory.
type Resource struct {
	ID        string    `json:"id"`
	TopicID   *string   `json:"topic_id,omitempty"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ResourceEnvelope is the directory wire shape. A nil Resource means not found.
type ResourceEnvelope struct {
	Resource *ResourceBody `json:"resource,omitempty"`
}

// ResourceBody is the resource object nested inside ResourceEnvelope.
type ResourceBody struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// ResourceContext is the per-session view of a resource. Summary doubles as a
// lazily populated cache for the summary task.
type ResourceContext struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
}

// ContextOf builds a ResourceContext from a directory record.
func ContextOf(r *Resource) ResourceContext {
	return ResourceContext{
		ID:      r.ID,
		Title:   r.Title,
		URL:     r.URL,
		Summary: r.Summary,
	}
}
