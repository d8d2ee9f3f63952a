package binance

import (
	"bytes"
	"encoding/json"

	"binance-di/internal/model"
	"binance-di/internal/model/enum"
	"binance-di/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// Message is one decoded inbound frame keyed by the exact Binance field
// names. Keys are case sensitive: ticker frames carry both "q" and "Q".
type Message map[string]json.RawMessage

// Decode parses a raw websocket frame. Any failure is an ErrDecodeFailure.
func Decode(raw []byte) (Message, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.Wrap(exception.ErrDecodeFailure, "empty frame")
	}
	var msg Message
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return nil, errors.Wrapf(exception.ErrDecodeFailure, "unmarshal frame: %v", err)
	}
	if msg == nil {
		return nil, errors.Wrap(exception.ErrDecodeFailure, "frame is not an object")
	}
	return msg, nil
}

type fieldKind uint8

const (
	kindRaw   fieldKind = iota // token copied as is
	kindText                   // boolean rendered as text
	kindLevels                 // [price, quantity] levels serialized to compact JSON text
)

type fieldSpec struct {
	name   string
	key    string
	kind   fieldKind
	nested bool // read from the kline "k" object
}

var (
	_tickerFields = []fieldSpec{
		{name: "price_change", key: "p"},
		{name: "price_change_percent", key: "P"},
		{name: "last_price", key: "c"},
		{name: "high_price", key: "h"},
		{name: "low_price", key: "l"},
		{name: "total_volume_asset", key: "v"},
		{name: "total_volume_quote", key: "q"},
		{name: "event_time", key: "E"},
	}

	_orderBookFields = []fieldSpec{
		{name: "lastUpdateId", key: "u"},
		{name: "bids", key: "b", kind: kindLevels},
		{name: "asks", key: "a", kind: kindLevels},
	}

	_tradeFields = []fieldSpec{
		{name: "event_time", key: "E"},
		{name: "price", key: "p"},
		{name: "quantity", key: "q"},
		{name: "trade_time", key: "T"},
		{name: "is_buyer_maker", key: "m", kind: kindText},
	}

	_klineFields = []fieldSpec{
		{name: "event_time", key: "E"},
		{name: "kline_start_time", key: "t", nested: true},
		{name: "kline_close_time", key: "T", nested: true},
		{name: "symbol", key: "s", nested: true},
		{name: "interval", key: "i", nested: true},
		{name: "open_price", key: "o", nested: true},
		{name: "close_price", key: "c", nested: true},
		{name: "high_price", key: "h", nested: true},
		{name: "low_price", key: "l", nested: true},
		{name: "base_asset_volume", key: "v", nested: true},
		{name: "number_of_trades", key: "n", nested: true},
		{name: "is_kline_closed", key: "x", kind: kindText, nested: true},
		{name: "quote_asset_volume", key: "q", nested: true},
	}
)

func fieldSet(category enum.Category) []fieldSpec {
	switch category {
	case enum.CategoryTicker:
		return _tickerFields
	case enum.CategoryOrderBook:
		return _orderBookFields
	case enum.CategoryTrades:
		return _tradeFields
	case enum.CategoryKlines:
		return _klineFields
	default:
		return nil
	}
}

// FieldNames returns the projected field names of a category in record order.
func FieldNames(category enum.Category) []string {
	specs := fieldSet(category)
	names := make([]string, len(specs))
	for i := range specs {
		names[i] = specs[i].name
	}
	return names
}

// Project maps a decoded message into the flat record of its category.
// It never rejects a message: absent fields become the missing marker.
func Project(category enum.Category, msg Message) model.Record {
	specs := fieldSet(category)
	record := make(model.Record, 0, len(specs))

	var nested Message
	for _, spec := range specs {
		src := msg
		if spec.nested {
			if nested == nil {
				nested = nestedMessage(msg, "k")
			}
			src = nested
		}
		record = append(record, model.Field{
			Name:  spec.name,
			Value: projectValue(spec.kind, src[spec.key]),
		})
	}

	return record
}

func nestedMessage(msg Message, key string) Message {
	raw, ok := msg[key]
	if !ok {
		return Message{}
	}
	var nested Message
	if err := sonic.Unmarshal(raw, &nested); err != nil || nested == nil {
		return Message{}
	}
	return nested
}

func projectValue(kind fieldKind, raw json.RawMessage) model.Value {
	switch kind {
	case kindText:
		v := model.RawValue(raw)
		if v.IsMissing() {
			return v
		}
		return model.StringValue(v.Text())
	case kindLevels:
		return model.StringValue(levelsText(raw))
	default:
		return model.RawValue(raw)
	}
}

// levelsText renders a bids/asks array in its compact canonical form.
func levelsText(raw json.RawMessage) string {
	if model.RawValue(raw).IsMissing() {
		return "[]"
	}
	var levels [][]string
	if err := sonic.Unmarshal(raw, &levels); err == nil {
		if levels == nil {
			return "[]"
		}
		if b, err := sonic.Marshal(levels); err == nil {
			return string(b)
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "[]"
	}
	return buf.String()
}
