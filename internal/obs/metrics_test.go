package obs

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.IncEvent("trades", "BTCUSDT")
	m.IncDecodeFailure("trades", "BTCUSDT")
	m.IncReconnect("trades", "BTCUSDT")
	m.IncSinkFailure("store")
	m.IncFlushFailure("parquet")
	m.IncPartOpened("csv")
	m.SetQueueDepth(3)
	m.ObserveDispatch(time.Millisecond)
	assert.Equal(t, Snapshot{}, m.Snapshot())
	assert.NotNil(t, m.Handler())
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.IncEvent("trades", "BTCUSDT")
	m.IncEvent("trades", "BTCUSDT")
	m.IncEvent("ticker", "ETHUSDT")
	m.IncSinkFailure("store")
	m.ObserveDispatch(2 * time.Millisecond)
	m.ObserveDispatch(4 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.events.WithLabelValues("trades", "BTCUSDT")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("ticker", "ETHUSDT")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sinkFailures.WithLabelValues("store")))

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap.Produced)
	assert.Equal(t, uint64(2), snap.Dispatched)
	assert.Equal(t, uint64(1), snap.SinkFailures)
	assert.Equal(t, uint64(2), snap.DispatchLatency.Count)
	assert.Equal(t, 2*time.Millisecond, snap.DispatchLatency.Min)
	assert.Equal(t, 4*time.Millisecond, snap.DispatchLatency.Max)
	assert.Equal(t, 3*time.Millisecond, snap.DispatchLatency.Avg)
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.IncReconnect("klines", "BTCUSDT")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `binance_di_reconnects_total{category="klines",symbol="BTCUSDT"} 1`), text)
}
