package sink

import (
	"context"

	"binance-di/internal/model"
)

// Sink receives every dispatched event.
type Sink interface {
	Name() string
	Consume(ctx context.Context, event model.Event) error
}
