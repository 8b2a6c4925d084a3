package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"subscription-cancel-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one decoded event. Returning an error naks the message.
type EventHandler func(ctx context.Context, event events.BaseEvent) error

// Subscriber reads cancellation events from JetStream.
type Subscriber struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	consume jetstream.ConsumeContext
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// Decode parses a message body written by Publisher. The event type falls
// back to the subject suffix when the body carries none.
func Decode(subject string, data []byte) (events.BaseEvent, error) {
	var event events.BaseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("failed to decode event on %s: %w", subject, err)
	}
	if event.Type == "" {
		event.Type = strings.TrimPrefix(subject, SubjectPrefix)
	}
	return event, nil
}

// Subscribe starts a consumer on the stream. An empty durable name creates
// an ephemeral consumer that only sees new events.
func (s *Subscriber) Subscribe(ctx context.Context, filter, durable string, handler EventHandler) error {
	if filter == "" {
		filter = SubjectPrefix + ">"
	}

	cfg := jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: filter,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durable == "" {
		cfg.DeliverPolicy = jetstream.DeliverNewPolicy
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := Decode(msg.Subject(), msg.Data())
		if err != nil {
			// Malformed payloads will never decode; drop them.
			_ = msg.Term()
			return
		}
		if err := handler(ctx, event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.consume = cc
	return nil
}

func (s *Subscriber) Close() {
	if s.consume != nil {
		s.consume.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
