package pubsub

import "sync"

// History keeps the most recent events seen on a bus so late SSE and gRPC
// subscribers can replay what they missed
type History struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	source   Upstream
	ch       chan Event
	done     chan struct{}
}

// NewHistory subscribes to source and records up to capacity events
func NewHistory(source Upstream, capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	h := &History{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		source:   source,
		ch:       source.Subscribe(),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *History) run() {
	defer close(h.done)
	for event := range h.ch {
		h.record(event)
	}
}

func (h *History) record(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, event)
	if len(h.events) > h.capacity {
		h.events = h.events[len(h.events)-h.capacity:]
	}
}

// Recent returns up to count of the latest events, oldest first. count <= 0 returns all.
func (h *History) Recent(count int) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if count > 0 && count < len(h.events) {
		start = len(h.events) - count
	}
	out := make([]Event, len(h.events)-start)
	copy(out, h.events[start:])
	return out
}

// Replay sends the latest count events to ch without blocking
func (h *History) Replay(ch chan Event, count int) int {
	sent := 0
	for _, event := range h.Recent(count) {
		select {
		case ch <- event:
			sent++
		default:
			return sent
		}
	}
	return sent
}

// Len returns the number of stored events
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

// Close detaches from the source bus
func (h *History) Close() {
	h.source.Unsubscribe(h.ch)
	<-h.done
}
