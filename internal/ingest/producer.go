package ingest

import (
	"context"

	"binance-di/internal/bus"
	"binance-di/internal/ingest/binance"
	"binance-di/internal/model"
	"binance-di/internal/obs"
	"binance-di/pkg/websocket"

	"github.com/yanun0323/logs"
)

type producerState uint8

const (
	stateConnecting producerState = iota + 1
	stateStreaming
	stateReconnectWait
	stateDone
)

func (s producerState) String() string {
	switch s {
	case stateConnecting:
		return "CONNECTING"
	case stateStreaming:
		return "STREAMING"
	case stateReconnectWait:
		return "RECONNECT_WAIT"
	case stateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Producer streams one feed into the queue until its sample cap is reached or
// ctx is cancelled. Connection failures never end a producer; it waits the
// backoff delay and reconnects, without a retry ceiling.
type Producer struct {
	feed     model.FeedIdentity
	url      string
	samples  int
	dialer   websocket.Dialer
	backoff  websocket.Backoff
	queue    *bus.Queue
	metrics  *obs.Metrics
	accepted int
}

// Run drives the producer state machine. It returns nil once the sample cap is
// reached and ctx.Err() when cancelled.
func (p *Producer) Run(ctx context.Context) error {
	var (
		state   = stateConnecting
		conn    websocket.Conn
		attempt int
	)
	defer func() {
		if conn != nil {
			_ = conn.Close(websocket.CloseNormal, "")
		}
	}()

	logs.Infof("[%s] starting producer for stream: %s", p.feed, p.url)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch state {
		case stateConnecting:
			c, err := p.dialer.Dial(ctx, p.url)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.metrics.IncReconnect(p.feed.Category.String(), p.feed.Symbol)
				logs.Errorf("[%s] producer error: %+v, reconnecting in %s", p.feed, err, p.backoff.Next(attempt+1))
				state = stateReconnectWait
				continue
			}
			conn = c
			attempt = 0
			logs.Infof("[%s] successfully connected", p.feed)
			state = stateStreaming

		case stateStreaming:
			next, err := p.stream(ctx, conn)
			_ = conn.Close(websocket.CloseNormal, "")
			conn = nil
			if next == stateDone && err != nil {
				return err
			}
			if next == stateReconnectWait {
				p.metrics.IncReconnect(p.feed.Category.String(), p.feed.Symbol)
				logs.Errorf("[%s] producer error: %+v, reconnecting in %s", p.feed, err, p.backoff.Next(attempt+1))
			}
			state = next

		case stateReconnectWait:
			attempt++
			if err := websocket.Sleep(ctx, p.backoff.Next(attempt)); err != nil {
				return err
			}
			state = stateConnecting

		case stateDone:
			logs.Infof("[%s] sample limit of %d reached, producer finishing", p.feed, p.samples)
			return nil
		}
	}
}

// stream reads frames until the connection fails or the cap is reached.
func (p *Producer) stream(ctx context.Context, conn websocket.Conn) (producerState, error) {
	for {
		msgType, raw, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return stateDone, ctx.Err()
			}
			return stateReconnectWait, err
		}
		if msgType != websocket.MessageText && msgType != websocket.MessageBinary {
			continue
		}

		msg, err := binance.Decode(raw)
		if err != nil {
			p.metrics.IncDecodeFailure(p.feed.Category.String(), p.feed.Symbol)
			logs.Warnf("[%s] skip frame, err: %+v", p.feed, err)
			continue
		}

		event := model.Event{
			Category: p.feed.Category,
			Symbol:   p.feed.Symbol,
			Record:   binance.Project(p.feed.Category, msg),
		}
		if err := p.queue.Put(ctx, event); err != nil {
			return stateDone, err
		}
		p.metrics.IncEvent(p.feed.Category.String(), p.feed.Symbol)

		if p.samples > 0 {
			p.accepted++
			if p.accepted >= p.samples {
				return stateDone, nil
			}
		}
	}
}

// Accepted returns the number of events counted against the sample cap.
func (p *Producer) Accepted() int {
	return p.accepted
}

// ProducerConfig holds the settings shared by every producer of a run.
type ProducerConfig struct {
	BaseURL  string
	Interval string
	Samples  int
	Backoff  websocket.Backoff
}

// NewProducer creates the producer of feed.
func NewProducer(feed model.FeedIdentity, cfg ProducerConfig, dialer websocket.Dialer, queue *bus.Queue, metrics *obs.Metrics) *Producer {
	if cfg.Backoff == (websocket.Backoff{}) {
		cfg.Backoff = websocket.DefaultBackoff()
	}
	return &Producer{
		feed:    feed,
		url:     binance.StreamURL(cfg.BaseURL, feed, cfg.Interval),
		samples: cfg.Samples,
		dialer:  dialer,
		backoff: cfg.Backoff,
		queue:   queue,
		metrics: metrics,
	}
}
