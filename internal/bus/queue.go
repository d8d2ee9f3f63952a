package bus

import (
	"context"
	"errors"
	"sync"

	"binance-di/internal/model"
)

var (
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue is the single FIFO hand-off between producers and the dispatcher.
//
// Put blocks only when a capacity is set; a zero capacity makes the queue
// unbounded so a producer never waits on a slow sink. Every event taken by Get
// must be acknowledged with Done, and Join waits until all events put so far
// have been acknowledged.
type Queue struct {
	mu         sync.Mutex
	items      []model.Event
	capacity   int
	unfinished int
	closed     bool

	notEmpty chan struct{}
	notFull  chan struct{}
	idle     chan struct{}
	done     chan struct{}
}

// NewQueue allocates a queue. capacity <= 0 means unbounded.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		capacity: capacity,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		idle:     idle,
		done:     make(chan struct{}),
	}
}

// Put appends an event at the tail of the queue.
func (q *Queue) Put(ctx context.Context, e model.Event) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrQueueClosed
		}
		if q.capacity == 0 || len(q.items) < q.capacity {
			q.items = append(q.items, e)
			q.unfinished++
			if q.unfinished == 1 {
				q.idle = make(chan struct{})
			}
			if q.capacity > 0 && len(q.items) < q.capacity {
				notify(q.notFull)
			}
			q.mu.Unlock()
			notify(q.notEmpty)
			return nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return ErrQueueClosed
		case <-q.notFull:
		}
	}
}

// Get removes and returns the event at the head of the queue, waiting until one is available.
// Events still queued after Close are returned before ErrQueueClosed.
func (q *Queue) Get(ctx context.Context) (model.Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			e := q.items[0]
			q.items[0] = model.Event{}
			q.items = q.items[1:]
			if len(q.items) > 0 {
				notify(q.notEmpty)
			}
			q.mu.Unlock()
			notify(q.notFull)
			return e, nil
		}
		if q.closed {
			q.mu.Unlock()
			return model.Event{}, ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return model.Event{}, ctx.Err()
		case <-q.done:
		case <-q.notEmpty:
		}
	}
}

// Done marks one event returned by Get as processed.
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.unfinished <= 0 {
		panic("bus: Done called more times than events were put")
	}
	q.unfinished--
	if q.unfinished == 0 {
		close(q.idle)
	}
}

// Join waits until every event put so far has been marked processed.
func (q *Queue) Join(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-idle:
		return nil
	}
}

// Len returns the number of events waiting to be taken.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Unfinished returns the number of events put but not yet marked processed.
func (q *Queue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
