package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("POST", "/print", 200, 0.001)
	IncExtractResult("ok")
	IncValidationFailure("magic")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "app_build_info") || !strings.Contains(body, "http_requests_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
	if !strings.Contains(body, `extract_results_total{outcome="ok"}`) {
		t.Fatalf("missing extract_results_total sample:\n%s", body)
	}
	if !strings.Contains(body, `document_validation_failures_total{reason="magic"}`) {
		t.Fatalf("missing document_validation_failures_total sample:\n%s", body)
	}
}
