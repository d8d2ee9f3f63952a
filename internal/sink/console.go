package sink

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"
	"syscall"

	"binance-di/internal/model"
	"binance-di/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// Console prints events for debugging or piping into other tools.
//
// Compact mode writes one {"stream","symbol","data"} envelope per line.
// Verbose mode writes a labeled, indented block per event.
type Console struct {
	out     io.Writer
	compact bool
	buf     []byte
	block   bytes.Buffer
}

func NewConsole(out io.Writer, compact bool) *Console {
	return &Console{out: out, compact: compact}
}

func (c *Console) Name() string {
	return "console"
}

// Consume writes event to the console. A closed pipe is reported as
// exception.ErrConsumerDisconnected.
func (c *Console) Consume(_ context.Context, event model.Event) error {
	if c == nil || c.out == nil {
		return exception.ErrNilInstance
	}

	var err error
	if c.compact {
		err = c.writeCompact(event)
	} else {
		err = c.writeVerbose(event)
	}
	if err == nil {
		return nil
	}
	if stderrors.Is(err, syscall.EPIPE) {
		return errors.Wrap(exception.ErrConsumerDisconnected, "console write").With("feed", event.Feed().String())
	}
	return errors.Wrap(err, "console write")
}

func (c *Console) writeCompact(event model.Event) error {
	buf := append(c.buf[:0], `{"stream":`...)
	buf = appendString(buf, event.Category.String())
	buf = append(buf, `,"symbol":`...)
	buf = appendString(buf, event.Symbol)
	buf = append(buf, `,"data":`...)
	buf = event.Record.AppendJSON(buf)
	buf = append(buf, "}\n"...)
	c.buf = buf

	_, err := c.out.Write(buf)
	return err
}

func (c *Console) writeVerbose(event model.Event) error {
	c.buf = event.Record.AppendJSON(c.buf[:0])

	c.block.Reset()
	c.block.WriteString("\n--- [")
	c.block.WriteString(strings.ToUpper(event.Category.String()))
	c.block.WriteByte('/')
	c.block.WriteString(event.Symbol)
	c.block.WriteString("] Data Received ---\n")
	if err := json.Indent(&c.block, c.buf, "", "  "); err != nil {
		return err
	}
	c.block.WriteByte('\n')

	_, err := c.out.Write(c.block.Bytes())
	return err
}

func appendString(dst []byte, s string) []byte {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return append(dst, `""`...)
	}
	return append(dst, raw...)
}
