package handler

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics are the request metrics collected by Metrics
type HTTPMetrics struct {
	inFlight prometheus.Gauge
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates request metrics and registers them with reg
func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pixelbench",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pixelbench",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of served requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 10},
		}, []string{"route", "code"}),
	}

	if err := reg.Register(m.inFlight); err != nil {
		return nil, err
	}

	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}

	return m, nil
}

// Metrics is a handler that collects performance metrics
func Metrics(m *HTTPMetrics, h http.Handler, routeMatcher RouteMatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeMatcher.Match(r)

		m.inFlight.Inc()
		defer m.inFlight.Dec()

		respMetrics := httpsnoop.CaptureMetricsFn(w, func(ww http.ResponseWriter) {
			h.ServeHTTP(ww, r)
		})

		m.duration.WithLabelValues(route, strconv.Itoa(respMetrics.Code)).Observe(respMetrics.Duration.Seconds())
	})
}
