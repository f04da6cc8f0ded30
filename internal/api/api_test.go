package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestIndex(t *testing.T) {
	a := NewKeepAliveAPI(":0", fakePinger{}, prometheus.NewRegistry(), zap.NewNop())
	code, body := get(t, a.Handler(), "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bot is running", body)
}

func TestHealth(t *testing.T) {
	a := NewKeepAliveAPI(":0", fakePinger{}, prometheus.NewRegistry(), zap.NewNop())
	code, body := get(t, a.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	down := NewKeepAliveAPI(":0", fakePinger{err: errors.New("database is closed")}, prometheus.NewRegistry(), zap.NewNop())
	code, _ = get(t, down.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "countdown_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	a := NewKeepAliveAPI(":0", fakePinger{}, reg, zap.NewNop())
	code, body := get(t, a.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "countdown_test_total 1")
}

func TestStartAndShutdown(t *testing.T) {
	a := NewKeepAliveAPI("127.0.0.1:0", fakePinger{}, prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, a.Start())
	a.Shutdown()
}
