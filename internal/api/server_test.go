// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/quantsafe/internal/api/response"
	"github.com/newthinker/quantsafe/internal/app"
	"github.com/newthinker/quantsafe/internal/core"
	"github.com/newthinker/quantsafe/internal/market"
	"github.com/newthinker/quantsafe/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAnalyzer struct {
	entered chan struct{}
	release chan struct{}
}

func (s *stubAnalyzer) Analyze(ctx context.Context, ticker, marketContext string) core.SignalResponse {
	if s.entered != nil {
		close(s.entered)
		<-s.release
	}
	return core.SignalResponse{
		Signal:      core.SignalHold,
		Confidence:  55,
		Reasoning:   "Range bound.",
		TargetPrice: "$64,000",
		RiskLevel:   core.RiskLow,
		Timestamp:   time.Now(),
	}
}

func newTestServer(t *testing.T, an app.Analyzer, reg *metrics.Registry) (*Server, *app.App) {
	t.Helper()

	feed := market.NewFeed(market.Config{
		Ticker:       "BTC/USD",
		InitialPrice: 64120.55,
		Change24h:    2.45,
		Volume:       "34.2B",
		MaxMove:      250,
	}, rand.New(rand.NewPCG(7, 7)))
	deps := app.Dependencies{Analyzer: an, Feed: feed}
	if reg != nil {
		deps.Metrics = reg
	}
	a := app.New(deps)

	srv, err := NewServer(Config{Host: "localhost", Port: 0}, Dependencies{App: a, Metrics: reg}, zap.NewNop())
	require.NoError(t, err)
	return srv, a
}

func serve(srv *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewServer_RequiresApp(t *testing.T) {
	_, err := NewServer(Config{}, Dependencies{}, nil)
	assert.Error(t, err)
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{}, nil)

	w := serve(srv, "GET", "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_SignalCycle(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{}, metrics.NewRegistry())

	w := serve(srv, "POST", "/api/v1/signal")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(srv, "GET", "/api/v1/state")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data app.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Latest)
	assert.Equal(t, core.SignalHold, resp.Data.Latest.Signal)
	assert.Len(t, resp.Data.History, 1)
	assert.False(t, resp.Data.Busy)
	assert.Equal(t, "BTC/USD", resp.Data.Market.Ticker)
}

func TestServer_ConflictWhileBusy(t *testing.T) {
	an := &stubAnalyzer{entered: make(chan struct{}), release: make(chan struct{})}
	srv, a := newTestServer(t, an, nil)

	done := make(chan int, 1)
	go func() { done <- serve(srv, "POST", "/api/v1/signal").Code }()
	<-an.entered

	w := serve(srv, "POST", "/api/v1/signal")
	assert.Equal(t, http.StatusConflict, w.Code)

	var errResp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "REQUEST_IN_FLIGHT", errResp.Error.Code)

	w = serve(srv, "GET", "/api/v1/state")
	assert.Contains(t, w.Body.String(), `"busy":true`)

	close(an.release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.False(t, a.Busy())
}

func TestServer_Routes(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{}, metrics.NewRegistry())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/api/v1/history", http.StatusOK},
		{"GET", "/api/v1/chart", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"POST", "/signal", http.StatusSeeOther},
		{"GET", "/api/v1/signal", http.StatusMethodNotAllowed},
		{"GET", "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(srv, tt.method, tt.path)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestServer_MetricsExposePipeline(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{}, metrics.NewRegistry())

	serve(srv, "POST", "/api/v1/signal")
	w := serve(srv, "GET", "/metrics")

	body := w.Body.String()
	assert.Contains(t, body, `quantsafe_signals_total{risk="LOW",signal="HOLD"} 1`)
	assert.Contains(t, body, "quantsafe_history_size 1")
	assert.True(t, strings.Contains(body, "http_requests_total"))
}

func TestServer_NoMetricsRoute(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{}, nil)

	w := serve(srv, "GET", "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
