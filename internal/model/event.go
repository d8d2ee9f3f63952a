package model

import (
	"strings"

	"binance-di/internal/model/enum"
)

// FeedIdentity identifies one producer and every artifact derived from it.
type FeedIdentity struct {
	Category enum.Category
	Symbol   string
}

// NewFeedIdentity normalizes the symbol to upper case.
func NewFeedIdentity(category enum.Category, symbol string) FeedIdentity {
	return FeedIdentity{
		Category: category,
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
	}
}

// String returns the log tag of the feed, e.g. TRADES/BTCUSDT.
func (f FeedIdentity) String() string {
	return strings.ToUpper(f.Category.String()) + "/" + f.Symbol
}

// Event is the unit passed from producers to the dispatcher.
type Event struct {
	Category enum.Category
	Symbol   string
	Record   Record
}

func (e Event) Feed() FeedIdentity {
	return FeedIdentity{Category: e.Category, Symbol: e.Symbol}
}
