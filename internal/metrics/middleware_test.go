package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPMiddleware(t *testing.T) {
	reg := NewRegistry()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	wrapped := HTTPMiddleware(reg)(handler)

	req := httptest.NewRequest("GET", "/api/v1/state", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	v, ok := sample(t, reg, "http_requests_total", map[string]string{"path": "/api/v1/state", "status": "2xx"})
	if !ok || v != 1 {
		t.Errorf("expected one counted request, got %v (found %v)", v, ok)
	}

	if _, ok := sample(t, reg, "http_request_duration_seconds", map[string]string{"path": "/api/v1/state"}); !ok {
		t.Error("expected a duration observation")
	}
}

func TestHTTPMiddleware_TracksInFlight(t *testing.T) {
	reg := NewRegistry()

	during := -1.0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during, _ = sample(t, reg, "http_requests_in_flight", nil)
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(reg)(handler)
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

	if during != 1 {
		t.Errorf("expected 1 in flight during request, got %v", during)
	}

	if after, _ := sample(t, reg, "http_requests_in_flight", nil); after != 0 {
		t.Errorf("expected 0 in flight after request, got %v", after)
	}
}

func TestHTTPMiddleware_CapturesStatusCode(t *testing.T) {
	reg := NewRegistry()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	wrapped := HTTPMiddleware(reg)(handler)

	req := httptest.NewRequest("POST", "/api/v1/signal", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}

	if _, ok := sample(t, reg, "http_requests_total", map[string]string{"method": "POST", "status": "4xx"}); !ok {
		t.Error("expected a 4xx request sample")
	}
}
