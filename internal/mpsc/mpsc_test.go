package mpsc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRecv_FIFO(t *testing.T) {
	tx, rx := New[int](10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, tx.Send(ctx, i))
	}
	assert.Equal(t, 5, rx.Len())
	assert.Equal(t, 10, rx.Cap())

	for i := 0; i < 5; i++ {
		v, err := rx.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestNew_MinimumCapacity(t *testing.T) {
	_, rx := New[string](0)
	assert.Equal(t, 1, rx.Cap())
}

func TestClosesAfterLastSender(t *testing.T) {
	tx, rx := New[int](10)
	ctx := context.Background()

	a := tx.Clone()
	b := tx.Clone()
	tx.Close()

	require.NoError(t, a.Send(ctx, 1))
	a.Close()
	require.NoError(t, b.Send(ctx, 2))
	b.Close()

	t.Run("buffered values are drained before closure", func(t *testing.T) {
		v, err := rx.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		v, err = rx.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("closure is reported once drained", func(t *testing.T) {
		_, err := rx.Recv(ctx)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestStaysOpenWhileAnySenderAlive(t *testing.T) {
	tx, rx := New[int](1)
	clone := tx.Clone()
	tx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := rx.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "channel must not close while a clone is open")
	clone.Close()
}

func TestSender_CloseIsIdempotent(t *testing.T) {
	tx, rx := New[int](1)
	keep := tx.Clone()

	tx.Close()
	tx.Close()

	assert.ErrorIs(t, tx.Send(context.Background(), 1), ErrSenderClosed)
	require.NoError(t, keep.Send(context.Background(), 2))

	v, err := rx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestClone_ClosedSenderPanics(t *testing.T) {
	tx, _ := New[int](1)
	tx.Close()
	assert.Panics(t, func() { tx.Clone() })
}

func TestSend_ReceiverGone(t *testing.T) {
	tx, rx := New[int](2)
	defer tx.Close()

	rx.Close()
	rx.Close()

	err := tx.Send(context.Background(), 1)
	assert.ErrorIs(t, err, ErrReceiverGone)
}

func TestSend_BlockedSenderReleasedWhenReceiverGone(t *testing.T) {
	tx, rx := New[int](1)
	defer tx.Close()
	ctx := context.Background()

	require.NoError(t, tx.Send(ctx, 1))

	errCh := make(chan error, 1)
	go func() { errCh <- tx.Send(ctx, 2) }()

	select {
	case err := <-errCh:
		t.Fatalf("send on full channel returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	rx.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrReceiverGone)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked send not released by receiver close")
	}
}

func TestSend_Backpressure(t *testing.T) {
	tx, rx := New[int](1)
	ctx := context.Background()

	blocked := tx.Clone()
	free := tx.Clone()
	tx.Close()
	defer free.Close()

	require.NoError(t, blocked.Send(ctx, 1))

	sent := make(chan error, 1)
	go func() {
		sent <- blocked.Send(ctx, 2)
		blocked.Close()
	}()

	// The full channel suspends only the goroutine sending on it.
	var other sync.WaitGroup
	progress := 0
	other.Add(1)
	go func() {
		defer other.Done()
		for i := 0; i < 100; i++ {
			progress++
		}
	}()
	other.Wait()
	assert.Equal(t, 100, progress)

	select {
	case err := <-sent:
		t.Fatalf("send returned while channel was full: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("send not released after capacity freed")
	}

	v, err = rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSend_ContextCancelledWhileBlocked(t *testing.T) {
	tx, rx := New[int](1)
	defer tx.Close()

	require.NoError(t, tx.Send(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := tx.Send(ctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, rx.Len(), "failed send must not enqueue")
}

func TestManyProducers_PerSenderOrder(t *testing.T) {
	const producers = 5
	const perProducer = 200

	tx, rx := New[[2]int](8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		s := tx.Clone()
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			defer s.Close()
			for seq := 0; seq < perProducer; seq++ {
				if err := s.Send(ctx, [2]int{id, seq}); err != nil {
					t.Errorf("producer %d: %v", id, err)
					return
				}
			}
		}(p)
	}
	tx.Close()

	next := make([]int, producers)
	received := 0
	for {
		v, err := rx.Recv(ctx)
		if errors.Is(err, ErrClosed) {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, next[v[0]], v[1], "producer %d out of order", v[0])
		next[v[0]]++
		received++
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, received)
}
