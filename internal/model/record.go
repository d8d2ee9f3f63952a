package model

import (
	"github.com/bytedance/sonic"
)

var _null = []byte("null")

// Value is one projected field value. It keeps the raw JSON token of the
// source field so numbers stay numbers and strings stay strings. A zero
// Value is the missing marker.
type Value struct {
	raw []byte
}

// RawValue wraps a raw JSON token. An empty token or a JSON null yields the missing marker.
func RawValue(raw []byte) Value {
	if len(raw) == 0 || string(raw) == "null" {
		return Value{}
	}
	return Value{raw: raw}
}

// StringValue wraps s as a JSON string value.
func StringValue(s string) Value {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return Value{}
	}
	return Value{raw: raw}
}

// MissingValue returns the explicit missing marker.
func MissingValue() Value {
	return Value{}
}

func (v Value) IsMissing() bool {
	return len(v.raw) == 0
}

// JSON returns the raw JSON token, or null for a missing value.
func (v Value) JSON() []byte {
	if v.IsMissing() {
		return _null
	}
	return v.raw
}

// Text renders the value for flat sinks: strings unquoted, other tokens
// verbatim and the missing marker as an empty string.
func (v Value) Text() string {
	if v.IsMissing() {
		return ""
	}
	if v.raw[0] == '"' {
		var s string
		if err := sonic.Unmarshal(v.raw, &s); err == nil {
			return s
		}
	}
	return string(v.raw)
}

type Field struct {
	Name  string
	Value Value
}

// Record is a flat, ordered field-name to value mapping produced by projection.
type Record []Field

func (r Record) Names() []string {
	names := make([]string, len(r))
	for i := range r {
		names[i] = r[i].Name
	}
	return names
}

// Get returns the value of the named field.
func (r Record) Get(name string) (Value, bool) {
	for i := range r {
		if r[i].Name == name {
			return r[i].Value, true
		}
	}
	return Value{}, false
}

// AppendJSON appends the record as a JSON object, keeping the field order.
func (r Record) AppendJSON(dst []byte) []byte {
	dst = append(dst, '{')
	for i := range r {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendJSONString(dst, r[i].Name)
		dst = append(dst, ':')
		dst = append(dst, r[i].Value.JSON()...)
	}
	return append(dst, '}')
}

func (r Record) MarshalJSON() ([]byte, error) {
	return r.AppendJSON(nil), nil
}

func appendJSONString(dst []byte, s string) []byte {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return append(dst, `""`...)
	}
	return append(dst, raw...)
}
