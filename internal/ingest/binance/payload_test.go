package binance

import (
	"errors"
	"testing"

	"binance-di/internal/model"
	"binance-di/internal/model/enum"
	"binance-di/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	_tickerFrame = `{"e":"24hrTicker","E":1700000000123,"s":"BTCUSDT","p":"-12.50","P":"-0.030","w":"41000.1","c":"41234.56","Q":"0.010","o":"41247.06","h":"41500.00","l":"40800.00","v":"1234.5","q":"50600000.1","O":1,"C":2,"F":3,"L":4,"n":5}`
	_depthFrame  = `{"e":"depthUpdate","E":1700000000123,"s":"BTCUSDT","U":157,"u":160,"b":[["0.0024", "10"]],"a":[["0.0026","100"],["0.0027","1"]]}`
	_tradeFrame  = `{"e":"aggTrade","E":1700000000123,"s":"BTCUSDT","a":26129,"p":"0.01633102","q":"4.70443515","f":100,"l":105,"T":1700000000120,"m":true,"M":true}`
	_klineFrame  = `{"e":"kline","E":1700000000123,"s":"BNBBTC","k":{"t":1672515780000,"T":1672515839999,"s":"BNBBTC","i":"1m","f":100,"L":200,"o":"0.0010","c":"0.0020","h":"0.0025","l":"0.0015","v":"1000","n":100,"x":false,"q":"1.0000","V":"500","Q":"0.500","B":"123456"}}`
)

func project(t *testing.T, category enum.Category, frame string) model.Record {
	t.Helper()
	msg, err := Decode([]byte(frame))
	require.NoError(t, err)
	return Project(category, msg)
}

func texts(r model.Record) map[string]string {
	m := make(map[string]string, len(r))
	for _, f := range r {
		m[f.Name] = f.Value.Text()
	}
	return m
}

func TestProjectTicker(t *testing.T) {
	r := project(t, enum.CategoryTicker, _tickerFrame)
	require.Len(t, r, 8)
	assert.Equal(t, FieldNames(enum.CategoryTicker), r.Names())

	got := texts(r)
	assert.Equal(t, "-12.50", got["price_change"])
	assert.Equal(t, "-0.030", got["price_change_percent"])
	assert.Equal(t, "41234.56", got["last_price"])
	assert.Equal(t, "41500.00", got["high_price"])
	assert.Equal(t, "40800.00", got["low_price"])
	assert.Equal(t, "1234.5", got["total_volume_asset"])
	assert.Equal(t, "50600000.1", got["total_volume_quote"], "q must not be confused with Q")
	assert.Equal(t, "1700000000123", got["event_time"])
}

func TestProjectOrderBook(t *testing.T) {
	r := project(t, enum.CategoryOrderBook, _depthFrame)
	assert.Equal(t, []string{"lastUpdateId", "bids", "asks"}, r.Names())

	got := texts(r)
	assert.Equal(t, "160", got["lastUpdateId"])
	assert.Equal(t, `[["0.0024","10"]]`, got["bids"])
	assert.Equal(t, `[["0.0026","100"],["0.0027","1"]]`, got["asks"])
}

func TestProjectOrderBookWithoutLevels(t *testing.T) {
	r := project(t, enum.CategoryOrderBook, `{"u":1}`)
	got := texts(r)
	assert.Equal(t, "[]", got["bids"])
	assert.Equal(t, "[]", got["asks"])
}

func TestProjectTrade(t *testing.T) {
	r := project(t, enum.CategoryTrades, _tradeFrame)
	assert.Equal(t, []string{"event_time", "price", "quantity", "trade_time", "is_buyer_maker"}, r.Names())

	got := texts(r)
	assert.Equal(t, "1700000000123", got["event_time"])
	assert.Equal(t, "0.01633102", got["price"])
	assert.Equal(t, "4.70443515", got["quantity"])
	assert.Equal(t, "1700000000120", got["trade_time"])
	assert.Equal(t, "true", got["is_buyer_maker"])

	v, _ := r.Get("is_buyer_maker")
	assert.Equal(t, `"true"`, string(v.JSON()), "boolean is rendered as text")
}

func TestProjectKline(t *testing.T) {
	r := project(t, enum.CategoryKlines, _klineFrame)
	require.Len(t, r, 13)

	got := texts(r)
	assert.Equal(t, "1700000000123", got["event_time"])
	assert.Equal(t, "1672515780000", got["kline_start_time"])
	assert.Equal(t, "1672515839999", got["kline_close_time"])
	assert.Equal(t, "BNBBTC", got["symbol"])
	assert.Equal(t, "1m", got["interval"])
	assert.Equal(t, "0.0010", got["open_price"])
	assert.Equal(t, "0.0020", got["close_price"])
	assert.Equal(t, "0.0025", got["high_price"])
	assert.Equal(t, "0.0015", got["low_price"])
	assert.Equal(t, "1000", got["base_asset_volume"])
	assert.Equal(t, "100", got["number_of_trades"])
	assert.Equal(t, "false", got["is_kline_closed"])
	assert.Equal(t, "1.0000", got["quote_asset_volume"])
}

func TestProjectMissingFields(t *testing.T) {
	for _, category := range enum.Categories() {
		t.Run(category.String(), func(t *testing.T) {
			r := project(t, category, `{"unrelated":1}`)
			assert.Equal(t, FieldNames(category), r.Names())
			for _, f := range r {
				if f.Name == "bids" || f.Name == "asks" {
					continue
				}
				assert.Truef(t, f.Value.IsMissing(), "field %s should be missing", f.Name)
			}
		})
	}
}

func TestProjectIsPure(t *testing.T) {
	frames := map[enum.Category]string{
		enum.CategoryTicker:    _tickerFrame,
		enum.CategoryOrderBook: _depthFrame,
		enum.CategoryTrades:    _tradeFrame,
		enum.CategoryKlines:    _klineFrame,
	}
	for category, frame := range frames {
		msg, err := Decode([]byte(frame))
		require.NoError(t, err)

		first := Project(category, msg)
		second := Project(category, msg)
		assert.Equal(t, first.AppendJSON(nil), second.AppendJSON(nil))
	}
}

func TestDecodeFailure(t *testing.T) {
	for _, frame := range []string{``, `   `, `{"e":`, `[1,2]`, `null`} {
		_, err := Decode([]byte(frame))
		require.Errorf(t, err, "frame %q", frame)
		assert.True(t, errors.Is(err, exception.ErrDecodeFailure))
	}
}

func TestStreamURL(t *testing.T) {
	base := enum.NetworkProduction.BaseURL()
	testCases := []struct {
		category enum.Category
		expected string
	}{
		{enum.CategoryTicker, "wss://stream.binance.com:9443/ws/btcusdt@ticker"},
		{enum.CategoryOrderBook, "wss://stream.binance.com:9443/ws/btcusdt@depth"},
		{enum.CategoryTrades, "wss://stream.binance.com:9443/ws/btcusdt@aggTrade"},
		{enum.CategoryKlines, "wss://stream.binance.com:9443/ws/btcusdt@kline_5m"},
	}
	for _, tc := range testCases {
		feed := model.NewFeedIdentity(tc.category, "BTCUSDT")
		assert.Equal(t, tc.expected, StreamURL(base, feed, "5m"))
	}
}
