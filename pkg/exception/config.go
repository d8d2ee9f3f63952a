package exception

import "github.com/yanun0323/errors"

var (
	ErrInvalidConfig  = errors.New("config: invalid")
	ErrEnvFileMissing = errors.New("config: environment file not found")
	ErrNoSink         = errors.New("config: no usable sink")
)
