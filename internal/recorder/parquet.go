package recorder

import (
	"io"
	"reflect"
	"strconv"

	"binance-di/internal/model"

	"github.com/parquet-go/parquet-go"
	"github.com/yanun0323/errors"
)

var _stringType = reflect.TypeOf("")

// parquetSchema builds the schema from a struct type so the columns keep the
// order of names; a parquet.Group would sort them by name.
func parquetSchema(names []string) *parquet.Schema {
	fields := make([]reflect.StructField, len(names))
	for i, name := range names {
		fields[i] = reflect.StructField{
			Name: "F" + strconv.Itoa(i),
			Type: _stringType,
			Tag:  reflect.StructTag(`parquet:"` + name + `,optional"`),
		}
	}
	return parquet.SchemaOf(reflect.New(reflect.StructOf(fields)).Elem().Interface())
}

func encodeParquet(out io.Writer, names []string, batch []model.Record) error {
	schema := parquetSchema(names)
	columns := schema.Columns()

	rows := make([]parquet.Row, 0, len(batch))
	for _, rec := range batch {
		row := make(parquet.Row, len(columns))
		for i, path := range columns {
			v, ok := rec.Get(path[0])
			if !ok || v.IsMissing() {
				row[i] = parquet.NullValue().Level(0, 0, i)
				continue
			}
			row[i] = parquet.ByteArrayValue([]byte(v.Text())).Level(0, 1, i)
		}
		rows = append(rows, row)
	}

	pw := parquet.NewWriter(out, schema)
	if _, err := pw.WriteRows(rows); err != nil {
		_ = pw.Close()
		return errors.Wrap(err, "parquet: write rows").With("rows", len(rows))
	}
	if err := pw.Close(); err != nil {
		return errors.Wrap(err, "parquet: close writer")
	}
	return nil
}
