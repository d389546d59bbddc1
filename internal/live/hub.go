package live

import (
	"sync"
	"sync/atomic"
)

// Message kinds published on the hub.
const (
	KindTemperature = "temperature"
	KindVibration   = "vibration"
	KindDevice      = "device"
)

// DefaultBuffer is the per-subscriber queue length used when NewHub gets 0.
const DefaultBuffer = 64

// Message is one live update.
type Message struct {
	Kind string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans messages out to subscribers. A subscriber whose queue is full misses
// the message; Publish never blocks.
type Hub struct {
	mu      sync.Mutex
	subs    map[uint64]chan Message
	nextID  uint64
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[uint64]chan Message), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers msg to every subscriber that has room for it.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a queue was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
