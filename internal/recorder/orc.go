package recorder

import (
	"io"
	"strings"

	"binance-di/internal/model"

	"github.com/scritchley/orc"
	"github.com/yanun0323/errors"
)

func orcSchema(names []string) (*orc.TypeDescription, error) {
	var sb strings.Builder
	sb.WriteString("struct<")
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(name)
		sb.WriteString(":string")
	}
	sb.WriteByte('>')
	return orc.ParseSchema(sb.String())
}

func encodeORC(out io.Writer, names []string, batch []model.Record) error {
	schema, err := orcSchema(names)
	if err != nil {
		return errors.Wrap(err, "orc: parse schema")
	}
	ow, err := orc.NewWriter(out, orc.SetSchema(schema))
	if err != nil {
		return errors.Wrap(err, "orc: create writer")
	}

	row := make([]interface{}, len(names))
	for n, rec := range batch {
		for i, name := range names {
			v, ok := rec.Get(name)
			if !ok || v.IsMissing() {
				row[i] = nil
				continue
			}
			row[i] = v.Text()
		}
		if err := ow.Write(row...); err != nil {
			_ = ow.Close()
			return errors.Wrap(err, "orc: write row").With("row", n)
		}
	}
	if err := ow.Close(); err != nil {
		return errors.Wrap(err, "orc: close writer")
	}
	return nil
}
