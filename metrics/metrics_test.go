package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordChat(t *testing.T) {
	m := New()
	m.RecordChat("ok")
	m.RecordChat("ok")
	m.RecordChat("quota")

	if actual := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("ok")); actual != 2 {
		t.Errorf("expected 2 ok requests, got %v", actual)
	}
	if actual := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("quota")); actual != 1 {
		t.Errorf("expected 1 quota request, got %v", actual)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordChat("ok")
	m.RecordProviderCall("ok", 1500*time.Millisecond)
	m.RecordRateLimited()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	for _, name := range []string{
		`portfolio_chat_requests_total{outcome="ok"} 1`,
		`portfolio_provider_call_duration_seconds_count{outcome="ok"} 1`,
		`portfolio_rate_limited_requests_total 1`,
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected output to contain %q", name)
		}
	}
}

func TestNewUsesIsolatedRegistries(t *testing.T) {
	// Registering twice on the default registry would panic.
	a, b := New(), New()
	a.RecordChat("ok")
	if actual := testutil.ToFloat64(b.ChatRequestsTotal.WithLabelValues("ok")); actual != 0 {
		t.Errorf("expected registries to be independent, got %v", actual)
	}
}
