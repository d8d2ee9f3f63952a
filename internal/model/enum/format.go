package enum

import (
	"strings"

	"binance-di/pkg/exception"

	"github.com/yanun0323/errors"
)

// Format is an output file format of the file sink.
type Format uint8

const (
	_format_beg Format = iota
	FormatJSON
	FormatCSV
	FormatParquet
	FormatORC
	_format_end
)

func (f Format) IsAvailable() bool {
	return f > _format_beg && f < _format_end
}

// IsColumnar reports whether the format is written in batches.
func (f Format) IsColumnar() bool {
	return f == FormatParquet || f == FormatORC
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	case FormatORC:
		return "orc"
	default:
		return "unknown"
	}
}

// Ext returns the file extension of the part files.
func (f Format) Ext() string {
	if f == FormatJSON {
		return "jsonl"
	}
	return f.String()
}

func ParseFormat(value string) (Format, error) {
	val := strings.TrimSpace(strings.ToLower(value))
	for f := _format_beg + 1; f < _format_end; f++ {
		if f.String() == val {
			return f, nil
		}
	}
	return 0, errors.Wrapf(exception.ErrUnsupportedFormat, "format: %q", value)
}
