package sink

import (
	"context"
	"strings"

	"binance-di/internal/model"
	"binance-di/pkg/exception"

	"github.com/redis/go-redis/v9"
	"github.com/yanun0323/errors"
)

const DefaultNamespace = "binance"

// Store appends every event to a redis stream named
// {namespace}:{category}:{lower(symbol)}.
type Store struct {
	client    redis.Cmdable
	namespace string
}

func NewStore(client redis.Cmdable, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{client: client, namespace: namespace}
}

func (s *Store) Name() string {
	return "store"
}

// StreamName returns the stream key event is appended to.
func (s *Store) StreamName(event model.Event) string {
	return s.namespace + ":" + event.Category.String() + ":" + strings.ToLower(event.Symbol)
}

// Consume issues one XADD with an auto-generated id. Field values are the flat
// text of the record, in record order. No retry.
func (s *Store) Consume(ctx context.Context, event model.Event) error {
	if s == nil || s.client == nil {
		return exception.ErrNilInstance
	}
	values := make([]any, 0, 2*len(event.Record))
	for _, f := range event.Record {
		values = append(values, f.Name, f.Value.Text())
	}

	stream := s.StreamName(event)
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: values,
	}).Err()
	if err != nil {
		return errors.Wrap(exception.ErrSinkFailure, err.Error()).With("stream", stream)
	}
	return nil
}
