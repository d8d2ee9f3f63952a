package enum

import (
	"strings"

	"binance-di/pkg/exception"

	"github.com/yanun0323/errors"
)

// Category is the event category of a feed. It selects the subscription
// suffix, the projected field set and the names of every derived artifact.
type Category uint8

const (
	_category_beg Category = iota
	CategoryTicker
	CategoryOrderBook
	CategoryTrades
	CategoryKlines
	_category_end
)

func (c Category) IsAvailable() bool {
	return c > _category_beg && c < _category_end
}

// String returns the stream key used in store stream names and file names.
func (c Category) String() string {
	switch c {
	case CategoryTicker:
		return "ticker"
	case CategoryOrderBook:
		return "order-book"
	case CategoryTrades:
		return "trades"
	case CategoryKlines:
		return "klines"
	default:
		return "unknown"
	}
}

// Suffix returns the websocket subscription suffix. interval is only used by klines.
func (c Category) Suffix(interval string) string {
	switch c {
	case CategoryTicker:
		return "@ticker"
	case CategoryOrderBook:
		return "@depth"
	case CategoryTrades:
		return "@aggTrade"
	case CategoryKlines:
		return "@kline_" + interval
	default:
		return ""
	}
}

// Categories lists every available category in declaration order.
func Categories() []Category {
	result := make([]Category, 0, int(_category_end)-1)
	for c := _category_beg + 1; c < _category_end; c++ {
		result = append(result, c)
	}
	return result
}

func ParseCategory(value string) (Category, error) {
	val := strings.TrimSpace(strings.ToLower(value))
	for _, c := range Categories() {
		if c.String() == val {
			return c, nil
		}
	}
	return 0, errors.Wrapf(exception.ErrUnknownCategory, "category: %q", value)
}
