package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/events"
	pktNats "oreza-assistant-be/pkg/nats"

	"github.com/fatih/color"
)

// eventtail prints assistant events relayed to NATS as they arrive.
func main() {
	url := flag.String("url", getEnv("NATS_URL", "nats://localhost:4222"), "NATS server URL")
	filter := flag.String("type", ">", "event type to follow, e.g. TURN_COMPLETED")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, err := pktNats.NewSubscriber(*url, logger.NewNopLogger())
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe(ctx, pktNats.Subject(*filter), "", func(_ context.Context, e events.Event) error {
		payload, _ := json.Marshal(e.Payload())
		colorFor(e.EventType()).Printf("%-22s ", e.EventType())
		color.White("%s", payload)
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	color.Cyan("Following %s on %s (Ctrl+C to stop)", pktNats.Subject(*filter), *url)
	<-ctx.Done()
}

func colorFor(eventType string) *color.Color {
	switch eventType {
	case events.FailureRecorded:
		return color.New(color.FgRed)
	case events.CalendarDispatched:
		return color.New(color.FgBlue)
	case events.SessionCreated, events.SessionCleared:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
