package service

import (
	"context"
	"encoding/json"
	"errors"

	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/internal/pkg/mailer"
	"subscription-cancel-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService reacts to in-process events: it mails notices and relays
// every event to the external bus when one is configured.
type consumerService struct {
	pubSub       message.Subscriber
	topicName    string
	emailService mailer.IEmailService
	relay        events.Publisher
	logger       logger.ILogger
}

func NewConsumerService(
	pubSub message.Subscriber,
	topicName string,
	emailService mailer.IEmailService,
	relay events.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		emailService: emailService,
		relay:        relay,
		logger:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. Notices and relays are best effort and a nack
// on the in-process channel would redeliver immediately.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error(logger.ModuleEvents, "Failed to decode event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	cs.notify(event)

	if cs.relay != nil {
		if err := cs.relay.Publish(ctx, event); err != nil {
			cs.logger.Warn(logger.ModuleEvents, "Failed to relay event", map[string]interface{}{
				"event_type": event.Type,
				"error":      err.Error(),
			})
		}
	}
}

func (cs *consumerService) notify(event events.BaseEvent) {
	if cs.emailService == nil {
		return
	}

	email := stringField(event.Data, "email")
	if email == "" {
		return
	}

	var err error
	switch event.Type {
	case events.TypeCancellationRecorded:
		accepted, _ := event.Data["accepted_downsell"].(bool)
		err = cs.emailService.SendCancellationNotice(email, mailer.CancellationNotice{
			Reason:           stringField(event.Data, "reason"),
			AcceptedDownsell: accepted,
			MonthlyPrice:     stringField(event.Data, "monthly_price"),
		})
	case events.TypeDownsellAccepted:
		err = cs.emailService.SendDownsellAccepted(email)
	default:
		return
	}

	switch {
	case errors.Is(err, mailer.ErrMailerDisabled):
		cs.logger.Debug(logger.ModuleMailer, "Mailer disabled, notice skipped", map[string]interface{}{"event_type": event.Type})
	case err != nil:
		cs.logger.Warn(logger.ModuleMailer, "Notice not sent", map[string]interface{}{
			"event_type": event.Type,
			"error":      err.Error(),
		})
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
