package recorder

import (
	"bufio"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"binance-di/internal/model"
	"binance-di/internal/model/enum"
	"binance-di/internal/obs"
	"binance-di/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Writer owns the per-(category, symbol, format) part file states.
type Writer struct {
	cfg     Config
	metrics *obs.Metrics

	mu     sync.Mutex
	states map[writerKey]*writerState
}

// NewWriter creates a part file writer and ensures the target directory exists.
func NewWriter(cfg Config, metrics *obs.Metrics) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir").With("dir", cfg.Dir)
	}
	return &Writer{
		cfg:     cfg,
		metrics: metrics,
		states:  make(map[writerKey]*writerState),
	}, nil
}

// Write appends one event to the part files of format.
//
// Line formats are written and flushed immediately. Columnar formats are
// buffered and written as one part per BatchSize records; a failed batch is
// logged and dropped, never returned.
func (w *Writer) Write(event model.Event, format enum.Format) error {
	if w == nil {
		return exception.ErrNilInstance
	}
	if !format.IsAvailable() {
		return errors.Wrapf(exception.ErrUnsupportedFormat, "format %s", format)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	st := w.state(event.Feed(), format)
	if format.IsColumnar() {
		st.buffer = append(st.buffer, event.Record)
		if len(st.buffer) >= w.cfg.BatchSize {
			w.flushColumnar(st)
		}
		return nil
	}

	if err := w.writeLine(st, event.Record); err != nil {
		path := st.path(w.cfg.Dir, st.part)
		_ = st.closeSegment()
		return errors.Wrap(exception.ErrSinkFailure, err.Error()).With("file", path)
	}
	return nil
}

// FlushAll writes every non-empty columnar buffer and closes every open line
// part. It is called once, after the last event has been dispatched.
func (w *Writer) FlushAll() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var first error
	for _, st := range w.states {
		if st.key.format.IsColumnar() {
			if len(st.buffer) > 0 {
				w.flushColumnar(st)
			}
			continue
		}
		if err := st.closeSegment(); err != nil {
			logs.Errorf("close %s, err: %+v", st.key, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (w *Writer) state(feed model.FeedIdentity, format enum.Format) *writerState {
	key := writerKey{category: feed.Category, symbol: feed.Symbol, format: format}
	st, ok := w.states[key]
	if !ok {
		st = &writerState{key: key}
		w.states[key] = st
	}
	return st
}

func (w *Writer) writeLine(st *writerState, rec model.Record) error {
	if st.key.format == enum.FormatCSV && st.header == nil {
		st.header = rec.Names()
	}

	if st.seg == nil {
		seg, err := w.openSegment(st)
		if err != nil {
			return err
		}
		st.seg = seg
		if st.key.format == enum.FormatCSV {
			if err := seg.csv.Write(st.header); err != nil {
				return err
			}
		}
	}

	switch st.key.format {
	case enum.FormatCSV:
		row := make([]string, len(st.header))
		for i, name := range st.header {
			if v, ok := rec.Get(name); ok {
				row[i] = v.Text()
			}
		}
		if err := st.seg.csv.Write(row); err != nil {
			return err
		}
		st.seg.csv.Flush()
		if err := st.seg.csv.Error(); err != nil {
			return err
		}
	default:
		st.line = rec.AppendJSON(st.line[:0])
		st.line = append(st.line, '\n')
		if _, err := st.seg.buf.Write(st.line); err != nil {
			return err
		}
	}
	if err := st.seg.buf.Flush(); err != nil {
		return err
	}

	st.lines++
	if st.lines >= w.cfg.RotateLines {
		logs.Infof("rotated part %d of %s", st.part, st.key)
		return st.closeSegment()
	}
	return nil
}

func (w *Writer) flushColumnar(st *writerState) {
	batch := st.buffer
	st.buffer = nil

	file, path, err := w.createPart(st)
	if err != nil {
		w.metrics.IncFlushFailure(st.key.format.String())
		logs.Errorf("open part for %s, lost %d records, err: %+v", st.key, len(batch), err)
		return
	}
	err = encodeBatch(file, st.key.format, batch)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		w.metrics.IncFlushFailure(st.key.format.String())
		logs.Errorf("flush %s, lost %d records, err: %+v", path, len(batch), err)
		return
	}
	logs.Infof("wrote %d records to %s", len(batch), path)
}

func (w *Writer) openSegment(st *writerState) (*segmentWriter, error) {
	file, _, err := w.createPart(st)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(file, w.cfg.BufferSize)
	seg := &segmentWriter{file: file, buf: buf}
	if st.key.format == enum.FormatCSV {
		seg.csv = csv.NewWriter(buf)
	}
	st.lines = 0
	return seg, nil
}

// createPart advances the part counter of st and creates its file. Part
// numbers whose file already exists are skipped, so no part is overwritten.
func (w *Writer) createPart(st *writerState) (*os.File, string, error) {
	for {
		st.part++
		path := st.path(w.cfg.Dir, st.part)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if stderrors.Is(err, os.ErrExist) {
				continue
			}
			return nil, path, err
		}
		w.metrics.IncPartOpened(st.key.format.String())
		return file, path, nil
	}
}

type writerKey struct {
	category enum.Category
	symbol   string
	format   enum.Format
}

func (k writerKey) String() string {
	return k.category.String() + "/" + k.symbol + "/" + k.format.String()
}

type writerState struct {
	key  writerKey
	part int

	// line formats
	seg    *segmentWriter
	lines  int
	header []string
	line   []byte

	// columnar formats
	buffer []model.Record
}

func (st *writerState) path(dir string, part int) string {
	name := fmt.Sprintf("%s_%s_%d.%s", st.key.category, strings.ToLower(st.key.symbol), part, st.key.format.Ext())
	return filepath.Join(dir, name)
}

func (st *writerState) closeSegment() error {
	seg := st.seg
	st.seg = nil
	st.lines = 0
	if seg == nil {
		return nil
	}
	if err := seg.buf.Flush(); err != nil {
		_ = seg.file.Close()
		return err
	}
	return seg.file.Close()
}

type segmentWriter struct {
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
}
