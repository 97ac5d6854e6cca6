// Package mpsc is a bounded multi-producer, single-consumer channel.
//
// A plain Go channel cannot tell its producers that nobody is listening any more,
// and it has to be closed by exactly one party. Here every producer holds its own
// Sender (obtained with Clone); the underlying channel closes once the last Sender
// is closed, and a Send made after the Receiver is closed reports ErrReceiverGone
// instead of blocking forever.
package mpsc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrReceiverGone is returned by Send once the Receiver has been closed.
	ErrReceiverGone = errors.New("mpsc: receiver gone")

	// ErrSenderClosed is returned by Send on a Sender that was already closed.
	ErrSenderClosed = errors.New("mpsc: sender closed")

	// ErrClosed is returned by Recv when every Sender is closed and the buffer is drained.
	ErrClosed = errors.New("mpsc: channel closed")
)

type shared[T any] struct {
	msgs chan T

	gone     chan struct{}
	goneOnce sync.Once

	mu      sync.Mutex
	senders int
}

func (s *shared[T]) acquire() {
	s.mu.Lock()
	s.senders++
	s.mu.Unlock()
}

func (s *shared[T]) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senders--
	if s.senders == 0 {
		close(s.msgs)
	}
}

// New creates a channel buffering up to capacity values and returns its first
// Sender and its only Receiver. capacity < 1 is treated as 1.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 1 {
		capacity = 1
	}

	s := &shared[T]{
		msgs:    make(chan T, capacity),
		gone:    make(chan struct{}),
		senders: 1,
	}
	return &Sender[T]{ch: s}, &Receiver[T]{ch: s}
}

// Sender is one producer's handle on the channel.
// A Sender belongs to a single goroutine; give every producer its own Clone.
type Sender[T any] struct {
	ch     *shared[T]
	closed atomic.Bool
	once   sync.Once
}

// Clone returns a new Sender on the same channel. The channel stays open until
// every clone, and the original, is closed. Cloning a closed Sender panics.
func (s *Sender[T]) Clone() *Sender[T] {
	if s.closed.Load() {
		panic("mpsc: clone of closed sender")
	}
	s.ch.acquire()
	return &Sender[T]{ch: s.ch}
}

// Send enqueues v, blocking while the buffer is full.
// It returns ErrReceiverGone if the Receiver is closed, ErrSenderClosed if this
// Sender is closed, or ctx.Err() if ctx ends first. A failed Send enqueues nothing.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	if s.closed.Load() {
		return ErrSenderClosed
	}

	select {
	case <-s.ch.gone:
		return ErrReceiverGone
	default:
	}

	select {
	case s.ch.msgs <- v:
		return nil
	case <-s.ch.gone:
		return ErrReceiverGone
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops this Sender. Safe to call multiple times.
func (s *Sender[T]) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.ch.release()
	})
}

// Receiver is the single consumer's handle on the channel.
type Receiver[T any] struct {
	ch *shared[T]
}

// Recv returns the next value in FIFO order, blocking while the buffer is empty.
// Values already buffered are still delivered after the last Sender closes; once
// they are drained Recv returns ErrClosed.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	select {
	case v, ok := <-r.ch.msgs:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close drops the Receiver. Pending and future Sends fail with ErrReceiverGone;
// values still buffered are discarded. Safe to call multiple times.
func (r *Receiver[T]) Close() {
	r.ch.goneOnce.Do(func() {
		close(r.ch.gone)
	})
}

// Len reports how many values are buffered.
func (r *Receiver[T]) Len() int {
	return len(r.ch.msgs)
}

// Cap reports the buffer capacity.
func (r *Receiver[T]) Cap() int {
	return cap(r.ch.msgs)
}
