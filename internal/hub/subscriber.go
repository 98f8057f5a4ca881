package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber is the receiving side of one registered outbound queue.
type Subscriber struct {
	id string
	ch chan []byte

	mu     sync.Mutex // serializes sends against close
	closed bool
}

func newSubscriber(capacity int) *Subscriber {
	return &Subscriber{
		id: uuid.NewString(),
		ch: make(chan []byte, capacity),
	}
}

// ID identifies the subscriber in logs.
func (s *Subscriber) ID() string { return s.id }

// C returns the queue of encoded frames. Zero-length frames are liveness
// probes and carry no data. The channel is closed once the subscriber has
// been removed from the hub or closed by its consumer.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// Close marks the consumer as gone. The hub notices on its next sweep.
// Close is idempotent.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// trySend enqueues frame without blocking. It fails when the queue is full
// or the subscriber is closed.
func (s *Subscriber) trySend(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- frame:
		return true
	default:
		return false
	}
}
