package handler

import (
	"net/http"

	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/tracing"
	"github.com/felixge/httpsnoop"
)

// Logger is a handler that logs completed requests, at error level for server errors and debug level otherwise
func Logger(log *logger.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respMetrics := httpsnoop.CaptureMetricsFn(w, func(ww http.ResponseWriter) {
			h.ServeHTTP(ww, r)
		})

		traceID, _ := tracing.TraceInfo(r.Context())
		logFields := LogFields(r,
			"trace-id", traceID,
			"http-method", r.Method,
			"remote-addr", r.RemoteAddr,
			"user-agent", r.UserAgent(),
			"uri", r.URL.String(),
			"status-code", respMetrics.Code,
			"bytes", respMetrics.Written,
			"elapsed", respMetrics.Duration,
		)

		if respMetrics.Code >= http.StatusInternalServerError {
			log.Errorw("request completed", logFields...)
			return
		}

		log.Debugw("request completed", logFields...)
	})
}

// LogFields prefixes the given keys and values with the request id of r
func LogFields(r *http.Request, keysAndValues ...interface{}) []interface{} {
	return append([]interface{}{"request-id", GetReqID(r.Context())}, keysAndValues...)
}
