package exception

import "github.com/yanun0323/errors"

// ConnectionFailure errors are recovered by the producer's reconnect loop and never surface as fatal.
var (
	ErrConnectionFailure = errors.New("connection: failure")
)
