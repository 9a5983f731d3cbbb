package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"oreza-assistant-be/internal/bootstrap"
	"oreza-assistant-be/internal/config"
	"oreza-assistant-be/internal/server"
	"oreza-assistant-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, cfg)
	defer container.Close()

	// 3. Initialize Server
	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)

	// 4. Background event relay
	g.Go(func() error {
		log.Println("Background: Starting Consumer Service...")
		return container.ConsumerService.Consume(gctx)
	})

	// 5. Run Server
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
