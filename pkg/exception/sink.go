package exception

import "github.com/yanun0323/errors"

// Sink errors
var (
	// ErrSinkFailure marks a store or file write that failed. The pipeline keeps running.
	ErrSinkFailure = errors.New("sink: write failure")

	// ErrConsumerDisconnected is returned when the console reader closed its end of the pipe.
	// It is the only sink failure that stops the whole pipeline.
	ErrConsumerDisconnected = errors.New("sink: consumer disconnected")

	ErrUnsupportedFormat = errors.New("sink: unsupported output format")
)
