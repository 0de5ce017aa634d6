package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// TestMiddleware_SuccessPath verifies successful execution records telemetry.
func TestMiddleware_SuccessPath(t *testing.T) {
	spanRecorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))

	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	mw := NewMiddleware(NewTracer(tp.Tracer("test")), metrics)

	wrapped := mw.Wrap(func(ctx context.Context, check CheckMeta) (string, error) {
		return "degraded", nil
	})
	status, err := wrapped(context.Background(), CheckMeta{Name: "cache"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status != "degraded" {
		t.Errorf("expected status 'degraded', got %q", status)
	}

	spans := spanRecorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "health.check.cache" {
		t.Errorf("expected span name 'health.check.cache', got %q", spans[0].Name())
	}

	if got := sumValue(t, collect(t, metricReader), "health.check.total"); got != 1 {
		t.Errorf("expected 1 recorded check, got %d", got)
	}
}

// TestMiddleware_ErrorPropagatesUnchanged verifies errors pass through untouched.
func TestMiddleware_ErrorPropagatesUnchanged(t *testing.T) {
	mw := NewMiddleware(nil, nil)

	wrapped := mw.Wrap(func(ctx context.Context, check CheckMeta) (string, error) {
		return "", context.Canceled
	})
	_, err := wrapped(context.Background(), CheckMeta{Name: "cancelled"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestMiddleware_PropagatesContext verifies context values reach the inner function.
func TestMiddleware_PropagatesContext(t *testing.T) {
	mw := NewMiddleware(NopTracer(), NopMetrics())

	type ctxKey string
	var received any
	wrapped := mw.Wrap(func(ctx context.Context, check CheckMeta) (string, error) {
		received = ctx.Value(ctxKey("k"))
		return "healthy", nil
	})

	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")
	if _, err := wrapped(ctx, CheckMeta{Name: "ctx"}); err != nil {
		t.Fatalf("wrapped() error = %v", err)
	}
	if received != "v" {
		t.Errorf("expected context value 'v', got %v", received)
	}
}

type recordingMetrics struct {
	duration time.Duration
	status   string
}

func (r *recordingMetrics) RecordCheck(_ context.Context, _ CheckMeta, status string, d time.Duration, _ error) {
	r.status = status
	r.duration = d
}

// TestMiddleware_MeasuresDuration verifies the recorded duration covers the call.
func TestMiddleware_MeasuresDuration(t *testing.T) {
	rec := &recordingMetrics{}
	mw := NewMiddleware(NopTracer(), rec)

	wrapped := mw.Wrap(func(ctx context.Context, check CheckMeta) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "healthy", nil
	})
	if _, err := wrapped(context.Background(), CheckMeta{Name: "slow"}); err != nil {
		t.Fatalf("wrapped() error = %v", err)
	}

	if rec.duration < 20*time.Millisecond {
		t.Errorf("expected duration >= 20ms, got %v", rec.duration)
	}
	if rec.status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", rec.status)
	}
}

type fakeObserver struct{}

func (fakeObserver) Tracer() trace.Tracer               { return tracenoop.NewTracerProvider().Tracer("t") }
func (fakeObserver) Meter() metric.Meter                { return noopmetric.NewMeterProvider().Meter("m") }
func (fakeObserver) Logger() Logger                     { return NopLogger() }
func (fakeObserver) Shutdown(ctx context.Context) error { return nil }

func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("expected ErrNilObserver, got %v", err)
	}
	mw, err := MiddlewareFromObserver(fakeObserver{})
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}
	if mw == nil {
		t.Fatal("expected middleware")
	}
}
