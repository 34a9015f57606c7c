package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNearestRank(t *testing.T) {
	sorted := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cases := []struct {
		pct      int
		expected int64
	}{
		{pct: 50, expected: 5},
		{pct: 95, expected: 10},
		{pct: 0, expected: 1},
		{pct: 100, expected: 10},
	}
	for _, tc := range cases {
		if got := nearestRank(sorted, tc.pct); got != tc.expected {
			t.Fatalf("p%d: expected %d, got %d", tc.pct, tc.expected, got)
		}
	}
	if got := nearestRank(nil, 50); got != 0 {
		t.Fatalf("expected 0 for no samples, got %d", got)
	}
}

func TestRingKeepsLatestSamples(t *testing.T) {
	r := &ring{}
	for i := int64(1); i <= 5; i++ {
		r.push(i, 3)
	}
	s := r.summary()
	if s.Samples != 3 {
		t.Fatalf("expected 3 samples, got %d", s.Samples)
	}
	if s.P50Ms != 4 {
		t.Fatalf("expected median of 3,4,5 to be 4, got %d", s.P50Ms)
	}
}

func TestTelemetryRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(Telemetry(nil))
	r.Get("/api/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things/42", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}

	snap := LatencySnapshot()
	got, ok := snap["GET /api/things/{id}"]
	if !ok {
		t.Fatalf("expected route pattern key, got %v", snap)
	}
	if got.Samples < 1 {
		t.Fatalf("expected at least one sample, got %d", got.Samples)
	}
}
