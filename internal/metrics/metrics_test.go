package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	BadgeUnlocks.WithLabelValues("first_review").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "badge_unlocks_total" {
			found = true
		}
	}
	if !found {
		t.Error("badge_unlocks_total not gathered")
	}
}

func TestMonitor_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Monitor)
	r.Delete("/api/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/reviews/{id}", http.MethodDelete, "204"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/reviews/"+id, nil))
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/reviews/{id}", http.MethodDelete, "204"))
	if after-before != 2 {
		t.Errorf("requests counted = %v, want 2", after-before)
	}
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	_, _ = ww.Write([]byte("ok"))

	if ww.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want %d", ww.statusCode, http.StatusOK)
	}
	if ww.Unwrap() != rec {
		t.Error("Unwrap() should return the wrapped writer")
	}
}
