package websocket

import (
	"context"
	"time"
)

// DefaultReconnectDelay is the fixed wait between two connection attempts of a feed.
// There is no retry ceiling.
const DefaultReconnectDelay = 5 * time.Second

// DefaultBackoff returns the fixed reconnect policy.
func DefaultBackoff() Backoff {
	return FixedBackoff(DefaultReconnectDelay)
}

// FixedBackoff waits d before every attempt.
func FixedBackoff(d time.Duration) Backoff {
	return Backoff{Delay: d}
}

// Next returns the wait before the given attempt (1-based).
func (b Backoff) Next(int) time.Duration {
	if b.Delay < 0 {
		return 0
	}
	return b.Delay
}

// Sleep waits d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
