// Package hub implements the subscriber registry and the non-blocking
// fan-out of encoded frames.
//
// The registry is guarded by a single mutex. It is held only to mutate the
// subscriber list or to copy it; frames are sent to the copy after the lock
// is released. Subscribers are removed exclusively by the liveness sweep,
// which probes every queue with a zero-length frame and drops those whose
// probe cannot be enqueued. Disconnect detection latency is therefore bounded
// by the sweep interval.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/metrsd/internal/codec"
	"github.com/and161185/metrsd/internal/errs"
	"github.com/and161185/metrsd/model"
	"go.uber.org/zap"
)

const (
	DefaultCapacity      = 100
	DefaultSweepInterval = 10 * time.Second
)

// Options configures a Hub. Zero values fall back to the defaults.
type Options struct {
	Capacity      int // Outbound queue size per subscriber, in frames.
	SweepInterval time.Duration
	Logger        *zap.SugaredLogger
}

// Hub owns the subscriber registry.
type Hub struct {
	mu     sync.Mutex
	subs   []*Subscriber
	closed bool

	capacity      int
	sweepInterval time.Duration
	logger        *zap.SugaredLogger
}

// New creates an empty hub.
func New(opts Options) *Hub {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Hub{
		capacity:      opts.Capacity,
		sweepInterval: opts.SweepInterval,
		logger:        opts.Logger,
	}
}

// Subscribe registers a new subscriber and returns its receiving handle.
func (h *Hub) Subscribe() (*Subscriber, error) {
	sub := newSubscriber(h.capacity)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, errs.Wrap(errs.ErrHubClosed, errs.KindLock, "subscribe")
	}
	h.subs = append(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Debugf("subscriber %s registered, total=%d", sub.id, n)
	return sub, nil
}

// Emit encodes ev once and offers the frame to every registered subscriber
// without blocking. Subscribers with a full queue or a closed handle miss
// the frame; they are not removed here.
func (h *Hub) Emit(ev model.Event) error {
	frame, err := codec.Encode(ev)
	if err != nil {
		h.logger.Errorf("skip %s event: %v", ev.Type, err)
		return err
	}

	subs := h.snapshot()
	dropped := 0
	for _, sub := range subs {
		if !sub.trySend(frame) {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Debugf("%s event not delivered to %d of %d subscribers", ev.Type, dropped, len(subs))
	}
	return nil
}

// Sweep probes every subscriber and removes those whose probe fails.
// It returns the number of removed subscribers.
func (h *Hub) Sweep() int {
	dead := make(map[*Subscriber]struct{})
	for _, sub := range h.snapshot() {
		if !sub.trySend(nil) {
			dead[sub] = struct{}{}
		}
	}
	if len(dead) == 0 {
		return 0
	}

	h.mu.Lock()
	alive := h.subs[:0]
	for _, sub := range h.subs {
		if _, ok := dead[sub]; !ok {
			alive = append(alive, sub)
		}
	}
	clear(h.subs[len(alive):])
	h.subs = alive
	n := len(h.subs)
	h.mu.Unlock()

	for sub := range dead {
		sub.Close()
		h.logger.Debugf("subscriber %s removed", sub.id)
	}
	h.logger.Debugf("alive subscribers: %d", n)
	return len(dead)
}

// RunSweeper runs Sweep every sweep interval until ctx is cancelled.
func (h *Hub) RunSweeper(ctx context.Context) error {
	t := time.NewTicker(h.sweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			h.logger.Debug("checking alive subscribers")
			h.Sweep()
		}
	}
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close unregisters and closes every subscriber. Subscribe fails afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = nil
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (h *Hub) snapshot() []*Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Subscriber(nil), h.subs...)
}
