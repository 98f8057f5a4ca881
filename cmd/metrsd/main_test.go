package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/and161185/metrsd/internal/client"
	"github.com/and161185/metrsd/internal/config"
	"github.com/and161185/metrsd/internal/errs"
	"github.com/and161185/metrsd/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(hosts ...string) *config.ServerConfig {
	return &config.ServerConfig{
		Hosts:         hosts,
		TickInterval:  1,
		SweepInterval: 1,
		QueueCapacity: 100,
		Logger:        zap.NewNop().Sugar(),
	}
}

func TestRun_StreamsSampledEvents(t *testing.T) {
	dir, err := os.MkdirTemp("", "metrsd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "d.sock")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, testConfig("unix://"+sock)) }()

	c, err := client.New("unix://" + sock)
	require.NoError(t, err)

	var stream *client.Stream
	require.Eventually(t, func() bool {
		stream, err = c.Subscribe(context.Background())
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer stream.Close()

	// the next full tick arrives in category order
	order := []model.EventType{model.Memory, model.Cpu, model.Disk, model.Network}
	timeout := time.After(5 * time.Second)
	seen := 0
	for seen < len(order) {
		select {
		case r := <-stream.Events():
			require.NoError(t, r.Err)
			if seen == 0 && r.Event.Type != model.Memory {
				continue
			}
			require.Equal(t, order[seen], r.Event.Type)
			seen++
		case <-timeout:
			t.Fatalf("got %d events of a tick", seen)
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRun_BadHostAborts(t *testing.T) {
	err := run(context.Background(), testConfig("ftp://x"))
	require.True(t, errs.IsKind(err, errs.KindConfig))
}
