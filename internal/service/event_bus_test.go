package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRelay struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingRelay) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingRelay) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

func TestPublisherToConsumerRelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	relay := &recordingRelay{}
	log := logger.NewNopLogger()
	consumer := NewConsumerService(pubSub, "test-topic", relay, log)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("test-topic", pubSub, log)
	publisher.Publish(ctx, events.New(events.TurnCompleted, map[string]interface{}{"session_id": "s1"}))

	assert.Eventually(t, func() bool {
		return len(relay.types()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{events.TurnCompleted}, relay.types())
}
