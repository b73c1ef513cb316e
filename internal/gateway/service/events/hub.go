package events

import (
	"sync"
)

// Event is one lifecycle change pushed to dashboard subscribers.
type Event struct {
	Type  string `json:"type"`
	RunID string `json:"runId,omitempty"`
	State string `json:"state,omitempty"`
}

const (
	TypeRunUpdated        = "run_updated"
	TypeRunDeleted        = "run_deleted"
	TypeAnnotationChanged = "annotation_changed"
	TypeFixChanged        = "planned_fix_changed"
)

// Hub fans events out to subscribers. Slow subscribers are dropped rather
// than allowed to block a write path.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a buffered event channel. The returned cancel func
// removes the subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber whose buffer has room.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// subscriber is not draining; skip it for this event
		}
	}
}
