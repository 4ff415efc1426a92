package pubsub

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

// DefaultStreamName is the JetStream stream holding roster events
const DefaultStreamName = "ROSTER_EVENTS"

// jetStreamBus publishes to a JetStream subject and fans incoming messages out to
// local subscribers. Shared by the external and embedded NATS pub/subs.
type jetStreamBus struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	subject string
	*fanout
}

// ensureStream creates the stream when it does not exist yet
func ensureStream(js nats.JetStreamContext, cfg *nats.StreamConfig) error {
	if _, err := js.StreamInfo(cfg.Name); err == nil {
		return nil
	}
	if _, err := js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
	}
	logger.Info("JetStream stream created", "stream", cfg.Name, "subjects", cfg.Subjects)
	return nil
}

// listen subscribes to new messages on the subject
func (b *jetStreamBus) listen() error {
	sub, err := b.js.Subscribe(b.subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to unmarshal event from JetStream", "error", err)
			msg.Nak()
			return
		}
		b.broadcast(event)
		msg.Ack()
	}, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}
	b.sub = sub
	logger.Debug("Subscribed to JetStream", "subject", b.subject)
	return nil
}

// Publish publishes an event to JetStream; local subscribers receive it once it is delivered back
func (b *jetStreamBus) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}
	if _, err := b.js.Publish(b.subject, data); err != nil {
		logger.Error("Failed to publish to NATS", "error", err, "subject", b.subject, "event_type", event.Type)
		return
	}
	logger.Debug("Published event to NATS", "event_type", event.Type, "subject", b.subject)
}

// Subscribe creates a subscription channel for events
func (b *jetStreamBus) Subscribe() chan Event {
	return b.subscribe()
}

// Unsubscribe removes a subscription channel
func (b *jetStreamBus) Unsubscribe(ch chan Event) {
	b.unsubscribe(ch)
}

// GetSubscriberCount returns the number of active local subscribers
func (b *jetStreamBus) GetSubscriberCount() int {
	return b.count()
}

// SubscribeJetStream creates a durable JetStream consumer so several instances can
// share processing of the event stream
func (b *jetStreamBus) SubscribeJetStream(consumerName string, handler func(Event)) error {
	_, err := b.js.Subscribe(b.subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to unmarshal event", "error", err, "consumer", consumerName)
			msg.Nak()
			return
		}
		handler(event)
		msg.Ack()
	}, nats.Durable(consumerName), nats.ManualAck())
	return err
}

func (b *jetStreamBus) close() {
	if b.sub != nil {
		b.sub.Unsubscribe()
	}
	b.closeAll()
	if b.nc != nil {
		b.nc.Close()
	}
}

// NATSPubSub implements pub/sub using an external NATS JetStream deployment
type NATSPubSub struct {
	jetStreamBus
}

// NewNATSPubSub connects to NATS and makes sure the roster event stream exists
func NewNATSPubSub(natsURL, subject, streamName string) (*NATSPubSub, error) {
	nc, err := nats.Connect(natsURL, nats.Name("teamforge"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if streamName == "" {
		streamName = DefaultStreamName
	}
	err = ensureStream(js, &nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
		MaxAge:   0, // Keep events indefinitely for replay
	})
	if err != nil {
		nc.Close()
		return nil, err
	}

	p := &NATSPubSub{jetStreamBus{
		nc:      nc,
		js:      js,
		subject: subject,
		fanout:  newFanout("nats", 100),
	}}
	if err := p.listen(); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the NATS connection
func (p *NATSPubSub) Close() {
	p.close()
}
