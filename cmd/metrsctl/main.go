// Command metrsctl subscribes to metrsd and prints every event as one JSON
// line.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/metrsd/internal/client"
	"github.com/and161185/metrsd/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewClientConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		cfg.Logger.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, out io.Writer) error {
	c, err := client.New(cfg.ServerAddr,
		client.WithTimeout(cfg.Timeout()),
		client.WithLogger(cfg.Logger),
	)
	if err != nil {
		return err
	}

	subscribe := c.Subscribe
	if cfg.Retry {
		subscribe = c.SubscribeWithRetry
	}
	stream, err := subscribe(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	enc := json.NewEncoder(out)
	printed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-stream.Events():
			if !ok {
				return nil
			}
			if r.Err != nil {
				return r.Err
			}
			if err := enc.Encode(r.Event); err != nil {
				return err
			}
			printed++
			if cfg.Count > 0 && printed >= cfg.Count {
				return nil
			}
		}
	}
}
