package handler

import (
	"encoding/json"
	"net/http"

	"github.com/DMarby/pixelbench/internal/health"
)

// Health is a handler reporting the latest health check status, with a 503 while unhealthy
func Health(healthChecker *health.Checker) Handler {
	return func(w http.ResponseWriter, r *http.Request) *Error {
		status := healthChecker.Status()

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Content-Type", jsonMediaType)

		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(status); err != nil {
			return InternalServerError()
		}

		return nil
	}
}
