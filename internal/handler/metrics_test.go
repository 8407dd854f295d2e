package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DMarby/pixelbench/internal/handler"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/filter/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Name("filter")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	reg := prometheus.NewRegistry()
	m, err := handler.NewHTTPMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}

	h := handler.Metrics(m, router, &handler.MuxRouteMatcher{Router: router})

	for _, path := range []string{"/filter/1", "/filter/2", "/health", "/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	// One series per route and status code, ids do not add series
	if count, err := testutil.GatherAndCount(reg, "pixelbench_http_request_duration_seconds"); err != nil || count != 3 {
		t.Errorf("got %d series, %v", count, err)
	}

	if _, err := handler.NewHTTPMetrics(reg); err == nil {
		t.Error("expected an error registering twice")
	}
}

func TestMuxRouteMatcher(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/filter/{id}", func(w http.ResponseWriter, r *http.Request) {}).Name("filter")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	matcher := &handler.MuxRouteMatcher{Router: router}

	tests := []struct {
		Path     string
		Expected string
	}{
		{"/filter/1", "filter"},
		{"/health", "/health"},
		{"/missing", "unknown"},
	}

	for _, test := range tests {
		if got := matcher.Match(httptest.NewRequest("GET", test.Path, nil)); got != test.Expected {
			t.Errorf("%s: got %s", test.Path, got)
		}
	}
}
