package mpsc

import (
	"iter"
	"sync"
	"sync/atomic"
	"unsafe"
)

type shared[T any] struct {
	mu        sync.Mutex
	available *sync.Cond

	queue        []T
	senders      int
	receiverGone bool

	tracer Tracer
	obs    Observer
}

func (s *shared[T]) addr() uintptr { return uintptr(unsafe.Pointer(s)) }

// Sender is a producer handle. Handles of one channel may be used from
// different goroutines; a single handle belongs to one goroutine at a time.
type Sender[T any] struct {
	s      *shared[T]
	closed atomic.Bool
}

// Receiver is the consumer handle. It belongs to one goroutine at a time.
type Receiver[T any] struct {
	s   *shared[T]
	buf []T
}

// New creates a channel with one Sender.
func New[T any](opts ...Option) (*Sender[T], *Receiver[T]) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := &shared[T]{senders: 1, tracer: o.tracer, obs: o.obs}
	s.available = sync.NewCond(&s.mu)
	return &Sender[T]{s: s}, &Receiver[T]{s: s}
}

// Send appends v to the queue and wakes the receiver. It never blocks. If
// the receiver has been closed, v is dropped.
//
// Send panics if the handle has been closed.
func (tx *Sender[T]) Send(v T) {
	if tx.closed.Load() {
		panic("mpsc: send on closed sender")
	}
	s := tx.s
	s.mu.Lock()
	if s.receiverGone {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, v)
	if s.tracer != nil {
		s.tracer.ChannelSend(s.addr())
	}
	s.mu.Unlock()

	if s.obs != nil {
		s.obs.Sent()
	}
	s.available.Signal()
}

// Clone returns a new handle to the same channel. The channel stays open
// until every handle is closed.
//
// Clone panics if the handle has been closed.
func (tx *Sender[T]) Clone() *Sender[T] {
	if tx.closed.Load() {
		panic("mpsc: clone of closed sender")
	}
	tx.s.mu.Lock()
	tx.s.senders++
	tx.s.mu.Unlock()
	return &Sender[T]{s: tx.s}
}

// Close releases the handle. Closing the last handle wakes the receiver so
// it can observe closure. Further calls do nothing.
func (tx *Sender[T]) Close() {
	if !tx.closed.CompareAndSwap(false, true) {
		return
	}
	s := tx.s
	s.mu.Lock()
	s.senders--
	last := s.senders == 0
	if last && s.tracer != nil {
		s.tracer.ChannelClose(s.addr())
	}
	s.mu.Unlock()

	if last {
		if s.obs != nil {
			s.obs.Closed()
		}
		s.available.Signal()
	}
}

// Receive returns the next value. It blocks while the queue is empty and a
// sender is open, and returns ok == false once the queue is drained and
// every sender is closed.
func (rx *Receiver[T]) Receive() (v T, ok bool) {
	if v, ok := rx.popBuffer(); ok {
		return v, true
	}

	s := rx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if v, ok := rx.takeLocked(); ok {
			return v, true
		}
		if s.senders == 0 || s.receiverGone {
			if s.tracer != nil {
				s.tracer.ChannelRecv(s.addr())
			}
			return v, false
		}
		if s.obs != nil {
			s.obs.Waited()
		}
		s.available.Wait()
	}
}

// TryReceive returns the next value if one is available without blocking.
func (rx *Receiver[T]) TryReceive() (v T, ok bool) {
	if v, ok := rx.popBuffer(); ok {
		return v, true
	}
	rx.s.mu.Lock()
	defer rx.s.mu.Unlock()
	return rx.takeLocked()
}

// All returns an iterator over received values. It stops when the channel
// is closed and drained, or when the loop body breaks. It is not restartable
// once closure has been observed.
func (rx *Receiver[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := rx.Receive()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Close releases the receiver. Queued values are discarded and later sends
// are dropped.
func (rx *Receiver[T]) Close() {
	s := rx.s
	s.mu.Lock()
	s.receiverGone = true
	clear(s.queue)
	s.queue = nil
	s.mu.Unlock()

	clear(rx.buf)
	rx.buf = nil
}

func (rx *Receiver[T]) popBuffer() (v T, ok bool) {
	if len(rx.buf) == 0 {
		return v, false
	}
	v = rx.buf[0]
	var zero T
	rx.buf[0] = zero
	rx.buf = rx.buf[1:]
	if rx.s.obs != nil {
		rx.s.obs.Received(true)
	}
	return v, true
}

// takeLocked pops the front of the shared queue and swaps the rest into the
// private buffer. Caller must hold s.mu and rx.buf must be empty.
func (rx *Receiver[T]) takeLocked() (v T, ok bool) {
	s := rx.s
	if len(s.queue) == 0 {
		return v, false
	}
	v = s.queue[0]
	var zero T
	s.queue[0] = zero
	rx.buf, s.queue = s.queue[1:], rx.buf[:0]
	if s.tracer != nil {
		s.tracer.ChannelRecv(s.addr())
	}
	if s.obs != nil {
		s.obs.Received(false)
	}
	return v, true
}
