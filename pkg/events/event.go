package events

import (
	"context"
	"time"
)

// Event types emitted by the cancellation flow.
const (
	TypeCancellationRecorded      = "CANCELLATION_RECORDED"
	TypeSubscriptionPendingCancel = "SUBSCRIPTION_PENDING_CANCELLATION"
	TypeWizardFinalizeFailed      = "WIZARD_FINALIZE_FAILED"
	TypeDownsellAccepted          = "DOWNSELL_ACCEPTED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CANCELLATION_RECORDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events somewhere. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope converts any Event into its wire form.
func Envelope(e Event) BaseEvent {
	if b, ok := e.(BaseEvent); ok {
		return b
	}
	return BaseEvent{Type: e.EventType(), Data: e.Payload(), OccurredAt: e.Timestamp()}
}
