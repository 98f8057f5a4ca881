// Package sampler drives periodic metric collection and hands every
// category event to the broadcast hub.
package sampler

import (
	"context"
	"time"

	"github.com/and161185/metrsd/model"
	"go.uber.org/zap"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = 10 * time.Second

// Collector reads the current host metrics.
type Collector interface {
	Collect(ctx context.Context) (model.Snapshot, error)
}

// Emitter accepts events for broadcast. Implemented by *hub.Hub.
type Emitter interface {
	Emit(ev model.Event) error
}

// Sampler runs the collect-and-emit loop.
type Sampler struct {
	collector Collector
	emitter   Emitter
	interval  time.Duration
	logger    *zap.SugaredLogger
}

func New(collector Collector, emitter Emitter, interval time.Duration, logger *zap.SugaredLogger) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sampler{
		collector: collector,
		emitter:   emitter,
		interval:  interval,
		logger:    logger,
	}
}

// Run samples once immediately and then on every tick until ctx is done.
// Failures of a single tick are logged and do not stop the loop.
func (s *Sampler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sampler) tick(ctx context.Context) {
	snap, err := s.collector.Collect(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Errorf("collect metrics: %v", err)
		}
		return
	}

	// all categories of one tick go out back to back, in order
	for _, ev := range snap.Events() {
		if err := s.emitter.Emit(ev); err != nil {
			s.logger.Errorf("emit %s event: %v", ev.Type, err)
		}
	}
}
