package filterapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/DMarby/pixelbench/internal/cache"
	"github.com/DMarby/pixelbench/internal/engine"
	"github.com/DMarby/pixelbench/internal/handler"
	"github.com/DMarby/pixelbench/internal/health"
	"github.com/DMarby/pixelbench/internal/hmac"
	"github.com/DMarby/pixelbench/internal/image"
	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/tracing"
	"github.com/gorilla/mux"
	"golang.org/x/sync/singleflight"
)

// API is a http api serving filtered images
type API struct {
	Engine        *engine.Engine
	Source        *image.Source
	Output        cache.Provider // Cache of encoded results, optional
	HealthChecker *health.Checker
	Log           *logger.Logger
	Tracer        *tracing.Tracer
	Metrics       *handler.HTTPMetrics // Optional
	HMAC          *hmac.Signer         // Unsigned requests are served when nil

	HandlerTimeout time.Duration
	// SourceExtension is appended to the image id to form the storage key of the source image
	SourceExtension string
	// MaxWorkers bounds the workers a request may ask for, defaulting to GOMAXPROCS
	MaxWorkers int

	renders singleflight.Group
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

func (a *API) maxWorkers() int {
	if a.MaxWorkers > 0 {
		return a.MaxWorkers
	}

	return runtime.GOMAXPROCS(0)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Redirect trailing slashes
	router.StrictSlash(true)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET").Name("health")

	// Filtered image routes, png when no extension is given
	router.Handle("/filter/{id}/{filter}{extension:\\..*}", handler.Handler(a.filterHandler)).Methods("GET").Name("filter")
	router.Handle("/filter/{id}/{filter}", handler.Handler(a.filterHandler)).Methods("GET").Name("filter")

	// Query parameters:
	// ?strategy={sequential,grid,recursive} - How to parallelize the filter, grid by default
	// ?workers={n} - Number of workers
	// ?block={s} - Block side length, picked by the planner by default

	// ?hmac - HMAC signature of the path and URL parameters

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, request logging, tracing, metrics, setting CORS headers, and handler execution timeout
	var h http.Handler = handler.CORS([]string{"Pixelbench-ID"}, http.TimeoutHandler(router, a.HandlerTimeout, "Something went wrong. Timed out."))
	if a.Metrics != nil {
		h = handler.Metrics(a.Metrics, h, routeMatcher)
	}

	return handler.AddRequestID(handler.Recovery(a.Log, handler.Logger(a.Log, handler.Tracer(a.Tracer, h, routeMatcher))))
}

// Handle not found errors
var notFoundError = &handler.Error{
	Message: "page not found",
	Code:    http.StatusNotFound,
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return notFoundError
}
