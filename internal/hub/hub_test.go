package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/and161185/metrsd/internal/codec"
	"github.com/and161185/metrsd/internal/errs"
	"github.com/and161185/metrsd/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func memEvent(total uint64) model.Event {
	return model.NewMemoryEvent(model.MemoryInfo{Total: total})
}

func drain(t *testing.T, sub *Subscriber, n int) [][]byte {
	t.Helper()
	got := make([][]byte, 0, n)
	for len(got) < n {
		select {
		case f, ok := <-sub.C():
			require.True(t, ok, "queue closed after %d frames", len(got))
			if len(f) == 0 {
				continue
			}
			got = append(got, f)
		case <-time.After(time.Second):
			t.Fatalf("timeout after %d of %d frames", len(got), n)
		}
	}
	return got
}

func TestSubscribe_Registers(t *testing.T) {
	h := New(Options{})
	require.Equal(t, 0, h.Len())

	s1, err := h.Subscribe()
	require.NoError(t, err)
	s2, err := h.Subscribe()
	require.NoError(t, err)

	require.Equal(t, 2, h.Len())
	require.NotEqual(t, s1.ID(), s2.ID())
	require.Equal(t, DefaultCapacity, cap(s1.ch))
}

func TestEmit_DeliversInOrderToAll(t *testing.T) {
	h := New(Options{})
	subs := make([]*Subscriber, 3)
	for i := range subs {
		s, err := h.Subscribe()
		require.NoError(t, err)
		subs[i] = s
	}

	for i := 1; i <= 50; i++ {
		require.NoError(t, h.Emit(memEvent(uint64(i))))
	}

	for _, s := range subs {
		frames := drain(t, s, 50)
		for i, f := range frames {
			ev, err := codec.Decode(f)
			require.NoError(t, err)
			require.Equal(t, memEvent(uint64(i+1)), ev)
		}
	}
}

func TestEmit_DoesNotBlockOnFullQueue(t *testing.T) {
	h := New(Options{Capacity: 1})
	slow, err := h.Subscribe()
	require.NoError(t, err)
	fast, err := h.Subscribe()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_ = h.Emit(memEvent(uint64(i)))
			// keep the fast consumer empty so only the slow one is full
			select {
			case <-fast.C():
			default:
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber queue")
	}

	require.Len(t, slow.C(), 1)
	require.Equal(t, 2, h.Len(), "emit must not remove subscribers")
}

func TestEmit_ClosedSubscriberIsNotRemoved(t *testing.T) {
	h := New(Options{})
	s, err := h.Subscribe()
	require.NoError(t, err)
	s.Close()
	s.Close()

	require.NoError(t, h.Emit(memEvent(1)))
	require.Equal(t, 1, h.Len())
}

func TestEmit_SerializationFailure(t *testing.T) {
	core, obs := observer.New(zap.ErrorLevel)
	h := New(Options{Logger: zap.New(core).Sugar()})
	s, err := h.Subscribe()
	require.NoError(t, err)

	err = h.Emit(model.Event{Type: model.Cpu, Data: model.MemoryInfo{}})
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindSerialization))
	require.Len(t, s.C(), 0)
	require.NotEmpty(t, obs.All())

	require.NoError(t, h.Emit(memEvent(7)))
	require.Len(t, drain(t, s, 1), 1)
}

func TestSweep_RemovesOnlyDead(t *testing.T) {
	h := New(Options{})
	alive, err := h.Subscribe()
	require.NoError(t, err)
	gone, err := h.Subscribe()
	require.NoError(t, err)

	gone.Close()
	require.Equal(t, 1, h.Sweep())
	require.Equal(t, 1, h.Len())

	// the live subscriber received a zero-length probe
	probe := <-alive.C()
	require.Empty(t, probe)

	require.Equal(t, 0, h.Sweep())
	require.Equal(t, 1, h.Len())
}

func TestSweep_RemovesFullQueue(t *testing.T) {
	h := New(Options{Capacity: 2})
	s, err := h.Subscribe()
	require.NoError(t, err)
	require.NoError(t, h.Emit(memEvent(1)))
	require.NoError(t, h.Emit(memEvent(2)))

	require.Equal(t, 1, h.Sweep())
	require.Equal(t, 0, h.Len())

	// buffered frames remain readable, then the queue reports closed
	require.Len(t, drain(t, s, 2), 2)
	_, ok := <-s.C()
	require.False(t, ok)
}

func TestRunSweeper_RemovesWithinInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New(Options{SweepInterval: 20 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- h.RunSweeper(ctx) }()

	s, err := h.Subscribe()
	require.NoError(t, err)
	s.Close()

	require.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestClose_EndsSubscribers(t *testing.T) {
	h := New(Options{})
	s, err := h.Subscribe()
	require.NoError(t, err)

	h.Close()
	require.Equal(t, 0, h.Len())
	_, ok := <-s.C()
	require.False(t, ok)

	_, err = h.Subscribe()
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindLock))
	require.ErrorIs(t, err, errs.ErrHubClosed)

	require.NoError(t, h.Emit(memEvent(1)))
}

func TestHub_ConcurrentUse(t *testing.T) {
	h := New(Options{Capacity: 8})
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s, err := h.Subscribe()
				if err != nil {
					return
				}
				if j%2 == 0 {
					s.Close()
				}
			}
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			_ = h.Emit(memEvent(uint64(j)))
		}
	}()
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			h.Sweep()
		}
	}()
	wg.Wait()

	h.Sweep()
	h.Sweep()
	require.LessOrEqual(t, h.Len(), 8*25)
}
