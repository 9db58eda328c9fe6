package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecommendationsCounter(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("keywords", "ФИТ"))
	RecommendationsTotal.WithLabelValues("keywords", "ФИТ").Inc()
	after := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("keywords", "ФИТ"))

	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	ClassifierFallbacks.WithLabelValues("not_ready").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "faculty_advisor_classifier_fallbacks_total") {
		t.Error("expected fallback counter in exposition")
	}
}
