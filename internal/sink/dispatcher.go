package sink

import (
	"context"
	stderrors "errors"
	"time"

	"binance-di/internal/bus"
	"binance-di/internal/model"
	"binance-di/internal/obs"
	"binance-di/pkg/exception"

	"github.com/yanun0323/logs"
)

// Dispatcher is the single consumer of the ingestion queue.
type Dispatcher struct {
	queue   *bus.Queue
	sinks   []Sink
	metrics *obs.Metrics

	// OnDisconnect is invoked once when the console reader goes away, before
	// Run returns. It is expected to cancel every producer.
	OnDisconnect func()
}

// NewDispatcher creates a dispatcher. Sinks are called in the given order for
// every event, so the console should come first.
func NewDispatcher(queue *bus.Queue, metrics *obs.Metrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		sinks:   sinks,
		metrics: metrics,
	}
}

// Run takes events off the queue in FIFO order and hands each one to every
// sink, one event at a time. It returns nil once ctx is cancelled or the queue
// is closed, and exception.ErrConsumerDisconnected when the console reader
// closed its pipe.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d == nil || d.queue == nil {
		return exception.ErrNilInstance
	}
	for {
		event, err := d.queue.Get(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, bus.ErrQueueClosed) {
				return nil
			}
			return err
		}

		start := time.Now()
		err = d.dispatch(ctx, event)
		d.queue.Done()
		d.metrics.ObserveDispatch(time.Since(start))
		d.metrics.SetQueueDepth(d.queue.Len())

		if err != nil {
			logs.Infof("pipe closed by consumer, initiating shutdown")
			if d.OnDisconnect != nil {
				d.OnDisconnect()
			}
			return err
		}
	}
}

// dispatch calls every sink. Sink failures are logged and counted; only a
// console disconnect is returned, and it stops the remaining sinks for this event.
func (d *Dispatcher) dispatch(ctx context.Context, event model.Event) error {
	for _, s := range d.sinks {
		err := s.Consume(ctx, event)
		if err == nil {
			continue
		}
		if stderrors.Is(err, exception.ErrConsumerDisconnected) {
			return err
		}
		d.metrics.IncSinkFailure(s.Name())
		logs.Errorf("[%s] %s sink failure, err: %+v", event.Feed(), s.Name(), err)
	}
	return nil
}
