package sink

import (
	"context"

	"binance-di/internal/model"
	"binance-di/internal/model/enum"
	"binance-di/internal/recorder"

	"github.com/yanun0323/errors"
)

// Files hands every event to the part file writer once per requested format.
type Files struct {
	writer  *recorder.Writer
	formats []enum.Format
}

func NewFiles(writer *recorder.Writer, formats []enum.Format) *Files {
	return &Files{writer: writer, formats: formats}
}

func (f *Files) Name() string {
	return "file"
}

// Consume writes every format even when an earlier one failed and returns the
// first failure.
func (f *Files) Consume(_ context.Context, event model.Event) error {
	var first error
	for _, format := range f.formats {
		if err := f.writer.Write(event, format); err != nil && first == nil {
			first = errors.Wrapf(err, "write %s", format)
		}
	}
	return first
}
