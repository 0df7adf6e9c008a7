package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/eugenenazirov/weblate-settings/internal/probe"
	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

func TestObserveReload(t *testing.T) {
	m := New()

	m.ObserveReload(nil, []settings.Finding{
		{Severity: settings.SeverityWarning},
		{Severity: settings.SeverityWarning},
		{Severity: settings.SeverityInfo},
	}, time.Unix(1700000000, 0))
	m.ObserveReload(errors.New("boom"), nil, time.Now())

	if got := testutil.ToFloat64(m.Reloads.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful reload, got %v", got)
	}
	if got := testutil.ToFloat64(m.Reloads.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed reload, got %v", got)
	}
	if got := testutil.ToFloat64(m.Findings.WithLabelValues("warning")); got != 2 {
		t.Fatalf("expected 2 warnings, got %v", got)
	}
	if got := testutil.ToFloat64(m.LastReload); got != 1700000000 {
		t.Fatalf("unexpected last reload %v", got)
	}
}

func TestObserveProbe(t *testing.T) {
	m := New()
	m.ObserveProbe(probe.Result{Name: "database", Healthy: true, Latency: 20 * time.Millisecond})
	m.ObserveProbe(probe.Result{Name: "cache"})

	if got := testutil.ToFloat64(m.BackendUp.WithLabelValues("database")); got != 1 {
		t.Fatalf("expected database up, got %v", got)
	}
	if got := testutil.ToFloat64(m.BackendUp.WithLabelValues("cache")); got != 0 {
		t.Fatalf("expected cache down, got %v", got)
	}
	if got := testutil.ToFloat64(m.BackendRTT.WithLabelValues("database")); got != 0.02 {
		t.Fatalf("unexpected probe duration %v", got)
	}
}

func TestHandlerExposesInstruments(t *testing.T) {
	m := New()
	m.ObserveRequest("GET /api/health", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`weblate_settings_http_requests_total{method="GET",path="GET /api/health",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
