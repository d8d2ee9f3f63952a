package recorder

import (
	"binance-di/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	defaultRotateLines = 100_000
	defaultBatchSize   = 10_000
	defaultBufferSize  = 64 * 1024
)

// Config controls part file behavior.
type Config struct {
	// Dir is the output directory every part file is written into.
	Dir string
	// RotateLines is the number of data lines after which a line part is closed.
	RotateLines int
	// BatchSize is the number of records buffered before a columnar part is written.
	BatchSize  int
	BufferSize int
}

// DefaultConfig returns the baseline configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		RotateLines: defaultRotateLines,
		BatchSize:   defaultBatchSize,
		BufferSize:  defaultBufferSize,
	}
}

func (c Config) withDefaults() Config {
	if c.RotateLines == 0 {
		c.RotateLines = defaultRotateLines
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.Wrap(exception.ErrInvalidConfig, "recorder: Dir is empty")
	}
	if c.RotateLines <= 0 {
		return errors.Wrap(exception.ErrInvalidConfig, "recorder: RotateLines must be > 0").With("rotate_lines", c.RotateLines)
	}
	if c.BatchSize <= 0 {
		return errors.Wrap(exception.ErrInvalidConfig, "recorder: BatchSize must be > 0").With("batch_size", c.BatchSize)
	}
	if c.BufferSize <= 0 {
		return errors.Wrap(exception.ErrInvalidConfig, "recorder: BufferSize must be > 0").With("buffer_size", c.BufferSize)
	}
	return nil
}
