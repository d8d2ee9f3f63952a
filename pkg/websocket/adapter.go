package websocket

import "context"

// Conn is a minimal interface for a feed connection.
// Read blocks until the next data message arrives, the peer closes or ctx is done.
type Conn interface {
	Read(ctx context.Context) (msgType MessageType, payload []byte, err error)
	Close(code CloseCode, reason string) error
}

// Dialer opens new connections to a stream URL.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}
