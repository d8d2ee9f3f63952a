package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"binance-di/pkg/exception"

	"github.com/gorilla/websocket"
	yerrors "github.com/yanun0323/errors"
)

const (
	DefaultDialerTimeout = 10 * time.Second
	defaultCloseTimeout  = time.Second
)

type dialer struct {
	dialer *websocket.Dialer
	header http.Header
}

// NewDialer returns a Dialer backed by gorilla/websocket.
// The handshake is bounded by DefaultDialerTimeout and by the Dial context.
func NewDialer() Dialer {
	return &dialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultDialerTimeout,
		},
	}
}

func (d *dialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, d.header)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, yerrors.Wrap(exception.ErrConnectionFailure, err.Error()).With("url", url)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Read(ctx context.Context) (MessageType, []byte, error) {
	if c == nil || c.conn == nil {
		return 0, nil, exception.ErrWebSocketNilConn
	}

	// unblock ReadMessage when ctx is done
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	msgType, payload, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return 0, nil, yerrors.Wrap(exception.ErrWebSocketConnectionClose, closeErr.Error())
		}
		return 0, nil, yerrors.Wrap(exception.ErrConnectionFailure, err.Error())
	}
	return MessageType(msgType), payload, nil
}

func (c *wsConn) Close(code CloseCode, reason string) error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(int(code), reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(defaultCloseTimeout))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
