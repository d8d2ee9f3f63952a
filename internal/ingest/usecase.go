package ingest

import (
	"context"
	stderrors "errors"

	"binance-di/internal/bus"
	"binance-di/internal/model"
	"binance-di/internal/obs"
	"binance-di/internal/recorder"
	"binance-di/internal/sink"
	"binance-di/pkg/exception"
	"binance-di/pkg/websocket"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"
)

// Config describes one ingestion run.
type Config struct {
	Feeds     []model.FeedIdentity
	Producer  ProducerConfig
	QueueSize int
}

// Usecase wires producers, the queue and the dispatcher, and owns the
// shutdown order between them.
type Usecase struct {
	queue      *bus.Queue
	producers  []*Producer
	dispatcher *sink.Dispatcher
	writer     *recorder.Writer
	metrics    *obs.Metrics
}

// NewUsecase builds one producer per feed. writer may be nil when no file
// output is configured; it must be the writer used by the file sink.
func NewUsecase(cfg Config, dialer websocket.Dialer, writer *recorder.Writer, metrics *obs.Metrics, sinks ...sink.Sink) (*Usecase, error) {
	if len(cfg.Feeds) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidConfig, "no valid load option specified")
	}
	if dialer == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "dialer")
	}

	queue := bus.NewQueue(cfg.QueueSize)
	producers := make([]*Producer, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		if feed.Symbol == "" || !feed.Category.IsAvailable() {
			return nil, errors.Wrapf(exception.ErrInvalidConfig, "invalid feed %s", feed)
		}
		producers = append(producers, NewProducer(feed, cfg.Producer, dialer, queue, metrics))
	}

	return &Usecase{
		queue:      queue,
		producers:  producers,
		dispatcher: sink.NewDispatcher(queue, metrics, sinks...),
		writer:     writer,
		metrics:    metrics,
	}, nil
}

// Run streams until every producer reached its sample cap, ctx is cancelled
// or the console reader disconnects, then shuts down in order:
//
//  1. stop every producer and wait for it
//  2. wait until every queued event has been dispatched
//  3. stop the dispatcher
//  4. flush every columnar buffer and close every line part
//
// Step 2 is skipped only when the dispatcher already stopped because the
// console reader went away.
func (use *Usecase) Run(ctx context.Context) error {
	pipeCtx, cancelPipe := context.WithCancel(ctx)
	defer cancelPipe()
	use.dispatcher.OnDisconnect = cancelPipe

	// the dispatcher outlives ctx so that the queue can be drained after an interrupt
	dispatchCtx, cancelDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelDispatch()
	dispatched := make(chan error, 1)
	go func() {
		dispatched <- use.dispatcher.Run(dispatchCtx)
	}()

	var producers errgroup.Group
	for _, p := range use.producers {
		producers.Go(func() error {
			err := p.Run(pipeCtx)
			if err != nil && !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, context.DeadlineExceeded) {
				logs.Errorf("[%s] producer stopped, err: %+v", p.feed, err)
			}
			return nil
		})
	}
	_ = producers.Wait()

	// 1. every producer has returned; make sure none can be restarted by ctx
	cancelPipe()
	logs.Infof("initiating shutdown sequence, %d events pending", use.queue.Len())

	// 2. drain
	var (
		dispatchErr     error
		dispatcherEnded bool
	)
	joinCtx, cancelJoin := context.WithCancel(context.WithoutCancel(ctx))
	joined := make(chan error, 1)
	go func() {
		joined <- use.queue.Join(joinCtx)
	}()
	select {
	case <-joined:
	case dispatchErr = <-dispatched:
		dispatcherEnded = true
		cancelJoin()
		<-joined
	}
	cancelJoin()
	if dispatcherEnded && use.queue.Unfinished() > 0 {
		logs.Warnf("dispatcher stopped, %d events were not dispatched", use.queue.Unfinished())
	}

	// 3. stop the dispatcher
	use.queue.Close()
	cancelDispatch()
	if !dispatcherEnded {
		dispatchErr = <-dispatched
	}
	if dispatchErr != nil && !stderrors.Is(dispatchErr, exception.ErrConsumerDisconnected) {
		logs.Errorf("dispatcher stopped, err: %+v", dispatchErr)
	}

	// 4. flush
	var flushErr error
	if use.writer != nil {
		logs.Info("flushing all remaining file buffers")
		flushErr = use.writer.FlushAll()
	}

	snap := use.metrics.Snapshot()
	logs.Infof("shutdown complete, produced: %d, dispatched: %d, sink failures: %d, avg dispatch: %s",
		snap.Produced, snap.Dispatched, snap.SinkFailures, snap.DispatchLatency.Avg)

	if flushErr != nil {
		return errors.Wrap(flushErr, "flush file parts")
	}
	return nil
}
