package service

import (
	"context"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event)
}

type publisherService struct {
	topicName string
	publisher message.Publisher
	logger    logger.ILogger
}

// NewPublisherService puts domain events on the in-process bus. Publishing
// never fails a request; errors are logged and the event is dropped.
func NewPublisherService(topicName string, publisher message.Publisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		logger:    log,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event events.Event) {
	payload, err := events.Encode(event)
	if err != nil {
		ps.logger.Error("EventBus", "Failed to encode event", map[string]interface{}{"error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", event.EventType())

	if err := ps.publisher.Publish(ps.topicName, msg); err != nil {
		ps.logger.Error("EventBus", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
