package livehttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skew/internal/engine"
	"skew/internal/executor"
	"skew/internal/gateway/venue"
	"skew/internal/report"
)

func newTestServer(t *testing.T) (*Server, *report.Collector) {
	t.Helper()
	collector := report.NewCollector(10)
	srv, err := NewServer(ServerConfig{Addr: ":0", Collector: collector})
	require.NoError(t, err)
	return srv, collector
}

func seed(collector *report.Collector) {
	collector.Merge(&engine.CycleResult{
		Group: "sol-hedge",
		Views: []engine.PositionView{
			{
				Symbol:        "SOL/USDT",
				Venue:         venue.IDBinance,
				BaseAmount:    decimal.NewFromInt(100),
				UnrealizedPnl: decimal.NewFromInt(500),
				NotionalValue: decimal.NewFromInt(15000),
			},
		},
		Eval: engine.Evaluation{
			Spread:   decimal.NewFromInt(1800),
			Baseline: decimal.NewFromInt(1000),
		},
		Decision: engine.NoneDecision("below min trade value"),
	}, []executor.Outcome{
		{Group: "sol-hedge", Venue: venue.IDBinance, Symbol: "SOL/USDT", Stage: executor.StagePlace, Status: executor.StatusSkipped},
	})
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestPositionsEndpoint(t *testing.T) {
	srv, collector := newTestServer(t)
	seed(collector)

	rec := get(t, srv, "/api/live/positions")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SOL/USDT")
	assert.Contains(t, rec.Body.String(), "binance")
}

func TestOutcomesEndpoint(t *testing.T) {
	srv, collector := newTestServer(t)
	seed(collector)

	rec := get(t, srv, "/api/live/outcomes")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SKIPPED")
}

func TestSpreadEndpoint(t *testing.T) {
	srv, collector := newTestServer(t)
	seed(collector)

	rec := get(t, srv, "/api/live/spread")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1800")
}

func TestHistoryWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv, "/api/live/history/positions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSpreadChartRenders(t *testing.T) {
	srv, collector := newTestServer(t)
	seed(collector)

	rec := get(t, srv, "/charts/spread")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestServerRequiresCollector(t *testing.T) {
	_, err := NewServer(ServerConfig{Addr: ":0"})
	assert.Error(t, err)
}
