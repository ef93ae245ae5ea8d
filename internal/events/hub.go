// Package events fans transcript events out to local stream subscribers and
// relays them to Redis for listeners on other instances.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

const (
	subscriberBuffer = 64
	relayBuffer      = 1024
)

// Relay forwards an event off-process.
type Relay interface {
	Publish(ctx context.Context, ev model.TranscriptEvent) error
}

// Hub delivers events to in-process subscribers without ever blocking the
// publisher. A subscriber that falls behind loses events.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	relay  Relay
	queue  chan model.TranscriptEvent
	log    zerolog.Logger
	closed bool
}

type subscriber struct {
	ch   chan model.TranscriptEvent
	once sync.Once
}

func (s *subscriber) close() { s.once.Do(func() { close(s.ch) }) }

// NewHub creates a hub. relay may be nil.
func NewHub(relay Relay, log zerolog.Logger) *Hub {
	return &Hub{
		subs:  make(map[string]map[*subscriber]struct{}),
		relay: relay,
		queue: make(chan model.TranscriptEvent, relayBuffer),
		log:   log.With().Str("component", "event_hub").Logger(),
	}
}

// Subscribe returns a channel of events for sessionID and a cancel func.
// The channel is closed on cancel or when the session is dropped.
func (h *Hub) Subscribe(sessionID string) (<-chan model.TranscriptEvent, func()) {
	sub := &subscriber{ch: make(chan model.TranscriptEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	return sub.ch, func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
		sub.close()
	}
}

// Publish hands ev to local subscribers and queues it for the relay.
func (h *Hub) Publish(ev model.TranscriptEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			h.log.Warn().Str("session_id", ev.SessionID).Msg("Subscriber lagging, event dropped")
		}
	}

	if h.relay == nil {
		return
	}
	select {
	case h.queue <- ev:
	default:
		h.log.Warn().Str("session_id", ev.SessionID).Msg("Relay queue full, event dropped")
	}
}

// DropSession closes every subscriber of sessionID.
func (h *Hub) DropSession(sessionID string) {
	h.mu.Lock()
	set := h.subs[sessionID]
	delete(h.subs, sessionID)
	h.mu.Unlock()

	for sub := range set {
		sub.close()
	}
}

// Subscribers returns the number of local subscribers for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Run drains the relay queue until ctx is done. Call it once.
func (h *Hub) Run(ctx context.Context) {
	if h.relay == nil {
		<-ctx.Done()
		return
	}

	h.log.Info().Msg("Event relay started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Event relay stopped")
			return
		case ev := <-h.queue:
			if err := h.relay.Publish(ctx, ev); err != nil && ctx.Err() == nil {
				h.log.Error().Err(err).Str("session_id", ev.SessionID).Msg("Relay publish failed")
			}
		}
	}
}

// Close closes every subscriber. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	all := h.subs
	h.subs = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for sub := range set {
			sub.close()
		}
	}
}
