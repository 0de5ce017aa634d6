package observe

import (
	"context"
	"time"
)

// ExecuteFunc runs one health check and returns its resulting status label.
// A non-nil error means the check did not complete (for example cancellation).
type ExecuteFunc func(ctx context.Context, check CheckMeta) (status string, err error)

// Middleware wraps check execution with tracing and metrics.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
}

// NewMiddleware creates a new Middleware. Nil components fall back to no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
	}
}

// Wrap wraps an ExecuteFunc with tracing and metrics.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, check CheckMeta) (string, error) {
		ctx, span := m.tracer.StartSpan(ctx, check)
		start := time.Now()

		status, err := fn(ctx, check)

		duration := time.Since(start)
		m.tracer.EndSpan(span, status, err)
		m.metrics.RecordCheck(ctx, check, status, duration, err)

		return status, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics), nil
}
