package binance

import (
	"strings"

	"binance-di/internal/model"
)

// StreamURL builds the raw stream endpoint of a feed:
// {base}/{lower(symbol)}{suffix}, e.g. wss://stream.binance.com:9443/ws/btcusdt@aggTrade.
func StreamURL(base string, feed model.FeedIdentity, interval string) string {
	return strings.TrimRight(base, "/") + "/" + strings.ToLower(feed.Symbol) + feed.Category.Suffix(interval)
}
