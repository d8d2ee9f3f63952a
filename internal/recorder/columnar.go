package recorder

import (
	"io"

	"binance-di/internal/model"
	"binance-di/internal/model/enum"
	"binance-di/pkg/exception"

	"github.com/yanun0323/errors"
)

// encodeBatch writes batch as one columnar file of format. Columns follow the
// field order of the records; every column is an optional string.
func encodeBatch(out io.Writer, format enum.Format, batch []model.Record) error {
	names := columnNames(batch)
	if len(names) == 0 {
		return errors.Errorf("%s: batch has no columns", format)
	}
	switch format {
	case enum.FormatParquet:
		return encodeParquet(out, names, batch)
	case enum.FormatORC:
		return encodeORC(out, names, batch)
	default:
		return errors.Wrapf(exception.ErrUnsupportedFormat, "format %s is not columnar", format)
	}
}

// columnNames returns the union of field names in first-seen order.
func columnNames(batch []model.Record) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, 16)
	for _, rec := range batch {
		for _, f := range rec {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			names = append(names, f.Name)
		}
	}
	return names
}
