// Package realtime fans harvester status events out to connected
// websocket clients.
package realtime

import (
	"sync"
	"time"
)

// StatusEvent describes a harvester state change pushed to stream clients.
type StatusEvent struct {
	Type      string    `json:"type"` // always "status"
	Status    string    `json:"status"`
	Stored    int       `json:"stored,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStatusEvent(status string, stored int) StatusEvent {
	return StatusEvent{
		Type:      "status",
		Status:    status,
		Stored:    stored,
		Timestamp: time.Now().UTC(),
	}
}

// Hub distributes events to subscribers. Slow subscribers drop events
// rather than blocking the publisher.
type Hub struct {
	mu      sync.Mutex
	nextID  uint64
	subs    map[uint64]chan StatusEvent
	bufSize int
}

func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub{
		subs:    make(map[uint64]chan StatusEvent),
		bufSize: bufSize,
	}
}

// Register adds a subscriber and returns its id and event channel.
func (h *Hub) Register() (uint64, <-chan StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan StatusEvent, h.bufSize)
	h.subs[id] = ch
	return id, ch
}

// Unregister removes a subscriber and closes its channel.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Broadcast delivers the event to every subscriber whose buffer has room.
func (h *Hub) Broadcast(event StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Size returns the number of connected subscribers.
func (h *Hub) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
