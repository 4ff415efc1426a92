package pubsub

import (
	"sync"
	"time"

	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

// Event types published by the command layer
const (
	MemberAdded      = "member:added"
	MemberRemoved    = "member:removed"
	MemberRenamed    = "member:renamed"
	MemberPower      = "member:power"
	MemberSwapped    = "member:swapped"
	ConfigUpdated    = "config:updated"
	LeadersUpdated   = "leaders:updated"
	FormationCreated = "formation:created"
	PowerSynced      = "power:synced"
)

// Event represents a pubsub event
type Event struct {
	Type       string                 `json:"type"`
	OperatorID string                 `json:"operatorId,omitempty"`
	TS         int64                  `json:"ts"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with the current time
func NewEvent(eventType, operatorID string, payload map[string]interface{}) Event {
	return Event{
		Type:       eventType,
		OperatorID: operatorID,
		TS:         time.Now().UnixMilli(),
		Payload:    payload,
	}
}

// Publisher is what the command layer needs to emit events
type Publisher interface {
	Publish(Event)
}

// Upstream is an interface for upstream publishers (e.g., NATS)
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// fanout delivers events to buffered subscriber channels, dropping on full buffers
type fanout struct {
	mu          sync.RWMutex
	subscribers []chan Event
	buffer      int
	name        string
}

func newFanout(name string, buffer int) *fanout {
	return &fanout{subscribers: []chan Event{}, buffer: buffer, name: name}
}

func (f *fanout) subscribe() chan Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, f.buffer)
	f.subscribers = append(f.subscribers, ch)
	logger.Debug("PubSub: New subscriber added", "bus", f.name, "total_subscribers", len(f.subscribers))
	return ch
}

func (f *fanout) unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subscribers {
		if sub == ch {
			close(ch)
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			break
		}
	}
}

func (f *fanout) broadcast(event Event) {
	// sends stay under the read lock so unsubscribe cannot close a channel mid-send
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("PubSub: Skipping slow subscriber", "bus", f.name, "event_type", event.Type)
		}
	}
}

func (f *fanout) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subscribers {
		close(sub)
	}
	f.subscribers = nil
}

// PubSub implements a simple publish-subscribe system
type PubSub struct {
	*fanout
	upstream Upstream // Optional upstream publisher (e.g., NATS)
}

// New creates a new in-process PubSub
func New() *PubSub {
	return &PubSub{fanout: newFanout("local", 10)}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher (e.g., NATS).
// Publish sends to the upstream, which broadcasts to every instance; events from the
// upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		fanout:   newFanout("bridge", 10),
		upstream: upstream,
	}

	ch := upstream.Subscribe()
	go func() {
		for event := range ch {
			logger.Debug("PubSub: Received event from upstream, forwarding to local", "type", event.Type)
			ps.broadcast(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event {
	return ps.subscribe()
}

// Unsubscribe removes a subscriber and closes its channel
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.unsubscribe(ch)
}

// Publish sends an event to all subscribers, through the upstream when one is configured
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.broadcast(event)
}

// SubscriberCount returns the number of local subscribers
func (ps *PubSub) SubscriberCount() int {
	return ps.count()
}
