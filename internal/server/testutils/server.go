// Package testutils builds servers for tests.
package testutils

import (
	"context"
	"net"
	"testing"

	"github.com/and161185/metrsd/internal/config"
	"github.com/and161185/metrsd/internal/hub"
	"github.com/and161185/metrsd/internal/server"
	"go.uber.org/zap"
)

// NewTestServer returns a server over a fresh hub with a silent logger.
func NewTestServer(opts hub.Options) *server.Server {
	logger := zap.NewNop().Sugar()
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return server.NewServer(hub.New(opts), &config.ServerConfig{
		TickInterval:  1,
		SweepInterval: 1,
		QueueCapacity: hub.DefaultCapacity,
		Logger:        logger,
	})
}

// Start binds hosts and serves them until the test ends. It fails the test
// on a bind error.
func Start(t *testing.T, srv *server.Server, hosts ...string) []net.Listener {
	t.Helper()
	listeners, err := server.Listen(hosts)
	if err != nil {
		t.Fatalf("listen %v: %v", hosts, err)
	}
	srv.Config.Hosts = hosts

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listeners) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return listeners
}
