package service

import (
	"context"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventRelay forwards bus events to another process. pkg/nats.Publisher
// satisfies it.
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	relay      EventRelay
	logger     logger.ILogger
}

// NewConsumerService drains the in-process bus into the event log and, when
// a relay is configured, onward to NATS. relay may be nil.
func NewConsumerService(subscriber message.Subscriber, topicName string, relay EventRelay, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		relay:      relay,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
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

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("EventRelay", "Failed to decode event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // poison message, retrying will not help
		return
	}

	cs.logger.Info("EventRelay", event.EventType(), event.Payload())

	if cs.relay != nil {
		if err := cs.relay.Publish(ctx, event); err != nil {
			// The relay is best effort; the event is already in the log.
			cs.logger.Warn("EventRelay", "Failed to relay event", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
	msg.Ack()
}
