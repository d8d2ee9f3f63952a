package bus

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"binance-di/internal/model"
	"binance-di/internal/model/enum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(symbol string, seq int) model.Event {
	return model.Event{
		Category: enum.CategoryTrades,
		Symbol:   symbol,
		Record: model.Record{
			{Name: "seq", Value: model.RawValue([]byte(strconv.Itoa(seq)))},
		},
	}
}

func seqOf(t *testing.T, e model.Event) int {
	t.Helper()
	v, ok := e.Record.Get("seq")
	require.True(t, ok)
	n, err := strconv.Atoi(v.Text())
	require.NoError(t, err)
	return n
}

func TestQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Put(ctx, event("BTCUSDT", i)))
	}
	assert.Equal(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		e, err := q.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, seqOf(t, e))
		q.Done()
	}
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Unfinished())
}

func TestQueuePerProducerOrder(t *testing.T) {
	const (
		producers = 8
		perFeed   = 500
	)
	ctx := context.Background()
	q := NewQueue(0)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			for i := 0; i < perFeed; i++ {
				_ = q.Put(ctx, event(symbol, i))
			}
		}("S" + strconv.Itoa(p))
	}
	wg.Wait()

	last := make(map[string]int)
	for i := 0; i < producers*perFeed; i++ {
		e, err := q.Get(ctx)
		require.NoError(t, err)
		seq := seqOf(t, e)
		if prev, ok := last[e.Symbol]; ok {
			require.Equal(t, prev+1, seq, "events of one producer must keep their order")
		} else {
			require.Equal(t, 0, seq)
		}
		last[e.Symbol] = seq
		q.Done()
	}
	assert.Len(t, last, producers)
}

func TestQueueJoinWaitsForDone(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(0)

	// an empty queue is already joined
	require.NoError(t, q.Join(ctx))

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, q.Put(ctx, event("ETHUSDT", i)))
	}

	processed := 0
	joined := make(chan struct{})
	go func() {
		_ = q.Join(ctx)
		close(joined)
	}()

	for i := 0; i < n; i++ {
		select {
		case <-joined:
			t.Fatalf("join returned after %d of %d events", processed, n)
		default:
		}
		_, err := q.Get(ctx)
		require.NoError(t, err)
		processed++
		q.Done()
	}

	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("join did not return after all events were processed")
	}
	assert.Equal(t, n, processed)
}

func TestQueueJoinContext(t *testing.T) {
	q := NewQueue(0)
	require.NoError(t, q.Put(context.Background(), event("BTCUSDT", 0)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.True(t, errors.Is(q.Join(ctx), context.DeadlineExceeded))
}

func TestQueueBoundedPutBlocks(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(2)
	require.NoError(t, q.Put(ctx, event("BTCUSDT", 0)))
	require.NoError(t, q.Put(ctx, event("BTCUSDT", 1)))

	putDone := make(chan error, 1)
	go func() {
		putDone <- q.Put(ctx, event("BTCUSDT", 2))
	}()

	select {
	case <-putDone:
		t.Fatal("put should block while the queue is full")
	case <-time.After(30 * time.Millisecond):
	}

	e, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, seqOf(t, e))
	q.Done()

	select {
	case err := <-putDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("put did not resume after a get")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.True(t, errors.Is(q.Put(cctx, event("BTCUSDT", 3)), context.Canceled))
}

func TestQueueGetCancelled(t *testing.T) {
	q := NewQueue(0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := q.Get(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestQueueClose(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(0)
	require.NoError(t, q.Put(ctx, event("BTCUSDT", 0)))
	q.Close()
	q.Close()

	assert.True(t, errors.Is(q.Put(ctx, event("BTCUSDT", 1)), ErrQueueClosed))

	e, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, seqOf(t, e))
	q.Done()

	_, err = q.Get(ctx)
	assert.True(t, errors.Is(err, ErrQueueClosed))
}

func TestQueueDoneTooManyTimes(t *testing.T) {
	q := NewQueue(0)
	assert.Panics(t, q.Done)
}
