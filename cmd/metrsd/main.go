// Command metrsd samples host metrics and streams them to subscribers.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/metrsd/cmd/metrsd/collector"
	"github.com/and161185/metrsd/internal/buildinfo"
	"github.com/and161185/metrsd/internal/config"
	"github.com/and161185/metrsd/internal/hub"
	"github.com/and161185/metrsd/internal/sampler"
	"github.com/and161185/metrsd/internal/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		cfg.Logger.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	buildinfo.Log(cfg.Logger)
	cfg.Logger.Infof("Server config: Hosts=%v, TickInterval=%d, SweepInterval=%d, QueueCapacity=%d",
		cfg.Hosts,
		cfg.TickInterval,
		cfg.SweepInterval,
		cfg.QueueCapacity,
	)

	// bind first so a bad endpoint aborts before anything runs
	listeners, err := server.Listen(cfg.Hosts)
	if err != nil {
		return err
	}

	h := hub.New(hub.Options{
		Capacity:      cfg.QueueCapacity,
		SweepInterval: cfg.Sweep(),
		Logger:        cfg.Logger,
	})
	smp := sampler.New(collector.New(cfg.Logger), h, cfg.Tick(), cfg.Logger)
	srv := server.NewServer(h, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.RunSweeper(gctx) })
	g.Go(func() error { return smp.Run(gctx) })
	g.Go(func() error { return srv.Serve(gctx, listeners) })
	return g.Wait()
}
