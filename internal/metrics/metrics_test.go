package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRecompute(t *testing.T) {
	m := New()
	m.ObserveRecompute(OutcomeApplied, 10*time.Millisecond, 7, 3)
	m.ObserveRecompute(OutcomeStale, time.Millisecond, 9, 5)

	if got := testutil.ToFloat64(m.Recomputes.WithLabelValues(OutcomeApplied)); got != 1 {
		t.Errorf("applied = %v", got)
	}
	if got := testutil.ToFloat64(m.Recomputes.WithLabelValues(OutcomeStale)); got != 1 {
		t.Errorf("stale = %v", got)
	}
	if got := testutil.ToFloat64(m.Pages); got != 3 {
		t.Errorf("stale results must not change the page gauge, got %v", got)
	}
	if got := testutil.ToFloat64(m.Blocks); got != 7 {
		t.Errorf("blocks = %v", got)
	}
}

func TestObserveExport(t *testing.T) {
	m := New()
	m.ObserveExport(4, time.Second, nil)
	m.ObserveExport(2, time.Second, errors.New("boom"))
	if got := testutil.ToFloat64(m.ExportedPages); got != 4 {
		t.Errorf("exported pages = %v", got)
	}
	if got := testutil.ToFloat64(m.Exports.WithLabelValues(OutcomeError)); got != 1 {
		t.Errorf("failed exports = %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/ping", "200")); got != 1 {
		t.Errorf("request counter = %v", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Errorf("metrics endpoint did not expose the registry: %d", w.Code)
	}
}
