package handler

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS is a handler that allows cross-origin GET requests from any origin
func CORS(exposedHeaders []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet},
		AllowedHeaders:       []string{"*"},
		ExposedHeaders:       exposedHeaders,
		OptionsSuccessStatus: http.StatusNoContent,
	}).Handler(next)
}
