package test

import (
	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/tracing"
)

// Tracer returns a tracer that records nothing, for use in tests
func Tracer(log *logger.Logger) *tracing.Tracer {
	return tracing.Noop(log, "pixelbench-test")
}
