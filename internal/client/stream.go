package client

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/and161185/metrsd/internal/errs"
	"github.com/and161185/metrsd/model"
)

const readBufferSize = 32 << 10

// Result is one element of a stream: an event or the error that ended it.
type Result struct {
	Event model.Event
	Err   error
}

// Stream is an open subscription. Results arrive in server order.
type Stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	body   io.ReadCloser
	events chan Result
	done   chan struct{}
	once   sync.Once
}

func newStream(ctx context.Context, cancel context.CancelFunc, body io.ReadCloser) *Stream {
	s := &Stream{
		ctx:    ctx,
		cancel: cancel,
		body:   body,
		events: make(chan Result, 16),
		done:   make(chan struct{}),
	}
	go s.read()
	return s
}

// Events returns the result channel. It is closed after a clean end of
// stream, after the first error result, or after Close.
func (s *Stream) Events() <-chan Result {
	return s.events
}

// Close cancels the request, releases the connection and waits for the
// reader to exit. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.body.Close()
		<-s.done
	})
	return err
}

func (s *Stream) read() {
	defer close(s.done)
	defer close(s.events)

	var p Parser
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.body.Read(buf)
		if n > 0 {
			evs, perr := p.Feed(buf[:n])
			for _, ev := range evs {
				if !s.send(Result{Event: ev}) {
					return
				}
			}
			if perr != nil {
				s.send(Result{Err: perr})
				return
			}
		}
		if err == nil {
			continue
		}

		if s.ctx.Err() != nil {
			return
		}
		if errors.Is(err, io.EOF) {
			if p.Pending() > 0 {
				s.send(Result{Err: errs.Newf(errs.KindStreamParse, "stream ended inside a frame (%d bytes)", p.Pending())})
			}
			return
		}
		s.send(Result{Err: errs.Wrap(err, errs.KindTransport, "read stream")})
		return
	}
}

func (s *Stream) send(r Result) bool {
	select {
	case s.events <- r:
		return true
	case <-s.ctx.Done():
		return false
	}
}
