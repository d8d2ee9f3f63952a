package websocket

import "time"

// MessageType represents a WebSocket data message type.
// Values match RFC 6455 opcodes.
type MessageType uint8

const (
	MessageText   MessageType = 1
	MessageBinary MessageType = 2
)

// CloseCode is a WebSocket close code.
type CloseCode uint16

// CloseNormal indicates a normal closure.
const CloseNormal CloseCode = 1000

// Backoff is the reconnect policy of a feed: a fixed delay before every attempt.
type Backoff struct {
	Delay time.Duration
}
