package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/newthinker/quantsafe/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() notifier.Event {
	return notifier.NewEvent(
		core.MarketState{Ticker: "BTC/USD", CurrentPrice: 64000.12},
		core.SignalResponse{
			Signal:      core.SignalBuy,
			Confidence:  82,
			Reasoning:   "Momentum is building.",
			TargetPrice: "$66,000",
			RiskLevel:   core.RiskMedium,
			Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
	)
}

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestWebhook_Name(t *testing.T) {
	w, err := New("http://example.com/hook", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "webhook", w.Name())
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New("", nil, 0)
	assert.Error(t, err)
}

func TestWebhook_Send(t *testing.T) {
	var received map[string]any
	var contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w, err := New(server.URL, nil, time.Second)
	require.NoError(t, err)

	ev := testEvent()
	require.NoError(t, w.Send(context.Background(), ev))

	assert.Contains(t, contentType, "application/json")
	assert.Equal(t, "signal", received["type"])
	assert.Equal(t, ev.ID, received["id"])
	assert.Equal(t, "BTC/USD", received["ticker"])
	assert.Equal(t, "BUY", received["signal"])
	assert.Equal(t, float64(82), received["confidence"])
	assert.Equal(t, "MEDIUM", received["riskLevel"])
	assert.Equal(t, "2024-05-01T12:00:00Z", received["timestamp"])
}

func TestWebhook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w, err := New(server.URL, nil, time.Second)
	require.NoError(t, err)

	err = w.Send(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestWebhook_CustomHeaders(t *testing.T) {
	var receivedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	headers := map[string]string{
		"Authorization": "Bearer test-token",
		"X-Custom":      "value",
	}
	w, err := New(server.URL, headers, time.Second)
	require.NoError(t, err)

	require.NoError(t, w.Send(context.Background(), testEvent()))
	assert.Equal(t, "Bearer test-token", receivedHeaders.Get("Authorization"))
	assert.Equal(t, "value", receivedHeaders.Get("X-Custom"))
}

func TestWebhook_Unreachable(t *testing.T) {
	w, err := New("http://127.0.0.1:1/hook", nil, 200*time.Millisecond)
	require.NoError(t, err)

	assert.Error(t, w.Send(context.Background(), testEvent()))
}
