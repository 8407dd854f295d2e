package handler

import (
	"net/http"

	"github.com/DMarby/pixelbench/internal/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
)

// Tracer is a handler that opens a span per request, named after the matched route
func Tracer(tracer *tracing.Tracer, h http.Handler, routeMatcher RouteMatcher) http.Handler {
	return otelhttp.NewHandler(
		h,
		"http",
		otelhttp.WithTracerProvider(tracer),
		otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})),
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return tracer.ServiceName + " " + routeMatcher.Match(r)
		}),
	)
}
