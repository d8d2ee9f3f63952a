package enum

import (
	"errors"
	"testing"

	"binance-di/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	testCases := []struct {
		input    string
		expected Category
		suffix   string
	}{
		{"ticker", CategoryTicker, "@ticker"},
		{"order-book", CategoryOrderBook, "@depth"},
		{" Trades ", CategoryTrades, "@aggTrade"},
		{"klines", CategoryKlines, "@kline_1m"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			c, err := ParseCategory(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, c)
			assert.Equal(t, tc.suffix, c.Suffix("1m"))
		})
	}

	_, err := ParseCategory("candles")
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrUnknownCategory))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	assert.Equal(t, "jsonl", f.Ext())
	assert.False(t, f.IsColumnar())

	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, "parquet", f.Ext())
	assert.True(t, f.IsColumnar())

	f, err = ParseFormat("ORC")
	require.NoError(t, err)
	assert.Equal(t, FormatORC, f)
	assert.Equal(t, "orc", f.Ext())
	assert.True(t, f.IsColumnar())

	_, err = ParseFormat("xlsx")
	assert.True(t, errors.Is(err, exception.ErrUnsupportedFormat))
}

func TestCategoriesOrder(t *testing.T) {
	assert.Equal(t, []Category{CategoryTicker, CategoryOrderBook, CategoryTrades, CategoryKlines}, Categories())
	assert.False(t, Category(0).IsAvailable())
	assert.False(t, _category_end.IsAvailable())
}
