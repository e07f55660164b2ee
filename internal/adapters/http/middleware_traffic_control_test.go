package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
	"github.com/kirillkom/visual-rag-router/internal/observability/logging"
	"github.com/kirillkom/visual-rag-router/internal/observability/metrics"
)

type rejectionsFake struct {
	reasons []string
}

func (f *rejectionsFake) RecordRejected(reason string) {
	f.reasons = append(f.reasons, reason)
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	handler := newTestHandler(cfg, &queryServiceFake{envelope: domain.NewEnvelope("ok")})

	req1 := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"text":"q"}`))
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"text":"q"}`))
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("healthz must bypass the rate limit, got %d", health.Code)
	}
}

func TestRateLimitMiddlewareRecordsRejection(t *testing.T) {
	rejections := &rejectionsFake{}
	base := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := rateLimitMiddleware(base, 0.5, 1, rejections)

	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/query", nil))
	}
	if len(rejections.reasons) != 1 || rejections.reasons[0] != "rate_limited" {
		t.Fatalf("expected one rate_limited rejection, got %v", rejections.reasons)
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond)

	go func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/query", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req2 := httptest.NewRequest(http.MethodPost, "/v1/query", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated backpressure gate, got %d", res2.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(bytes.NewReader(res2.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode overload response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected overload error message in response")
	}

	close(release)

	select {
	case code := <-done:
		if code != http.StatusNoContent {
			t.Fatalf("first request expected 204, got %d", code)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timed out waiting for first request completion")
	}
}

func TestRequestIDMiddlewarePropagatesHeader(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if seen != "req-42" || res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("expected request id req-42, got context=%q header=%q", seen, res.Header().Get(requestIDHeader))
	}
}

func TestMetricsCountRejectedRequests(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	httpMetrics := metrics.NewHTTPServerMetrics("api")
	handler := NewRouter(cfg, &queryServiceFake{envelope: domain.NewEnvelope("ok")}, nil, httpMetrics, nil).Handler()

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"text":"q"}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(res.Body.String(), `vrr_http_rejected_total{reason="rate_limited",service="api"} 2`) {
		t.Fatalf("expected two rate_limited rejections in metrics output")
	}
}
