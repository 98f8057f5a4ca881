package server_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/and161185/metrsd/internal/client"
	"github.com/and161185/metrsd/internal/errs"
	"github.com/and161185/metrsd/internal/hub"
	srv "github.com/and161185/metrsd/internal/server"
	"github.com/and161185/metrsd/internal/server/testutils"
	"github.com/and161185/metrsd/model"
	"github.com/stretchr/testify/require"
)

func shortSocket(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "metrsd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func waitSubscribers(t *testing.T, h *hub.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Len() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestListen_MixedEndpoints(t *testing.T) {
	s := testutils.NewTestServer(hub.Options{})
	sock := shortSocket(t)
	listeners := testutils.Start(t, s, "unix://"+sock, "tcp://127.0.0.1:0")
	require.Len(t, listeners, 2)

	for _, addr := range []string{"unix://" + sock, "http://" + listeners[1].Addr().String()} {
		c, err := client.New(addr)
		require.NoError(t, err)
		stream, err := c.Subscribe(context.Background())
		require.NoError(t, err, addr)
		require.NoError(t, stream.Close())
	}

	_, err := srv.Listen([]string{"ftp://x"})
	require.True(t, errs.IsKind(err, errs.KindConfig))
}

func TestStream_OrderedDelivery(t *testing.T) {
	s := testutils.NewTestServer(hub.Options{})
	listeners := testutils.Start(t, s, "tcp://127.0.0.1:0")

	c, err := client.New("http://" + listeners[0].Addr().String())
	require.NoError(t, err)
	stream, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	defer stream.Close()
	waitSubscribers(t, s.Hub, 1)

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, s.Hub.Emit(model.NewMemoryEvent(model.MemoryInfo{Total: uint64(i)})))
	}

	timeout := time.After(3 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case r, ok := <-stream.Events():
			require.True(t, ok)
			require.NoError(t, r.Err)
			require.Equal(t, model.Memory, r.Event.Type)
			require.Equal(t, uint64(i), r.Event.Data.(model.MemoryInfo).Total)
		case <-timeout:
			t.Fatalf("received %d of %d events", i, n)
		}
	}
}

func TestStream_SeveralSubscribersSeeSameEvents(t *testing.T) {
	s := testutils.NewTestServer(hub.Options{})
	sock := shortSocket(t)
	testutils.Start(t, s, "unix://"+sock)

	streams := make([]*client.Stream, 3)
	for i := range streams {
		c, err := client.New("unix://" + sock)
		require.NoError(t, err)
		streams[i], err = c.Subscribe(context.Background())
		require.NoError(t, err)
		defer streams[i].Close()
	}
	waitSubscribers(t, s.Hub, 3)

	snap := model.Snapshot{Memory: model.MemoryInfo{Total: 9}, Cpus: model.CpuList{{Name: "cpu0"}}}
	for _, ev := range snap.Events() {
		require.NoError(t, s.Hub.Emit(ev))
	}

	for _, st := range streams {
		for _, want := range snap.Events() {
			r := <-st.Events()
			require.NoError(t, r.Err)
			require.Equal(t, want.Type, r.Event.Type)
		}
	}
}

func TestStream_DisconnectIsReclaimed(t *testing.T) {
	s := testutils.NewTestServer(hub.Options{SweepInterval: 50 * time.Millisecond})
	listeners := testutils.Start(t, s, "tcp://127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Hub.RunSweeper(ctx) }()

	c, err := client.New("http://" + listeners[0].Addr().String())
	require.NoError(t, err)
	stream, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	waitSubscribers(t, s.Hub, 1)

	require.NoError(t, stream.Close())
	waitSubscribers(t, s.Hub, 0)

	// sending after the reclaim must not fail
	require.NoError(t, s.Hub.Emit(model.NewMemoryEvent(model.MemoryInfo{})))
}

func TestUnhandledRoute(t *testing.T) {
	s := testutils.NewTestServer(hub.Options{})
	listeners := testutils.Start(t, s, "tcp://127.0.0.1:0")

	c, err := client.New("http://" + listeners[0].Addr().String() + "/nope")
	require.NoError(t, err)
	_, err = c.Subscribe(context.Background())

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 404, apiErr.Status)
	require.Equal(t, "Unhandled route", apiErr.Msg)
}
