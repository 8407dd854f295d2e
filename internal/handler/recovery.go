package handler

import (
	"net/http"
	"runtime/debug"

	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/tracing"
)

// Recovery is a handler that turns a panic into an internal server error
func Recovery(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}

			// Headers may already be on the wire, in which case the client sees a truncated response
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			http.Error(w, InternalServerError().Message, http.StatusInternalServerError)

			traceID, spanID := tracing.TraceInfo(r.Context())
			log.Errorw("panic handling request", LogFields(r,
				"trace-id", traceID,
				"span-id", spanID,
				"panic", err,
				"stacktrace", string(debug.Stack()),
			)...)
		}()

		next.ServeHTTP(w, r)
	})
}
