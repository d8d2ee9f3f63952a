package exception

import "github.com/yanun0323/errors"

var (
	ErrDecodeFailure   = errors.New("market data: decode failure")
	ErrUnknownCategory = errors.New("market data: unknown category")
	ErrEmptySymbol     = errors.New("market data: empty symbol")
)
