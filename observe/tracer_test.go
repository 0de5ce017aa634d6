package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestCheckMeta_SpanName(t *testing.T) {
	meta := CheckMeta{Name: "db-check"}
	if got := meta.SpanName(); got != "health.check.db-check" {
		t.Errorf("expected %q, got %q", "health.check.db-check", got)
	}
}

// TestTracer_SpanAttributes verifies all attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	meta := CheckMeta{
		Name:     "db",
		Tags:     []string{"ready", "storage"},
		Fallback: "degraded",
	}

	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, "healthy", nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "health.check.db" {
		t.Errorf("expected span name 'health.check.db', got %q", s.Name())
	}

	attrs := spanAttrs(s)
	if v, ok := attrs["check.name"]; !ok || v.AsString() != "db" {
		t.Errorf("expected check.name='db', got %v", v)
	}
	if v, ok := attrs["check.fallback"]; !ok || v.AsString() != "degraded" {
		t.Errorf("expected check.fallback='degraded', got %v", v)
	}
	if v, ok := attrs["check.tags"]; !ok || len(v.AsStringSlice()) != 2 {
		t.Errorf("expected 2 check.tags, got %v", v)
	}
	if v, ok := attrs["health.status"]; !ok || v.AsString() != "healthy" {
		t.Errorf("expected health.status='healthy', got %v", v)
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status().Code)
	}
}

// TestTracer_ContextPropagation verifies parent span is propagated.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otelTracer := tp.Tracer("test")
	tr := NewTracer(otelTracer)

	parentCtx, parentSpan := otelTracer.Start(context.Background(), "health.invocation")
	_, childSpan := tr.StartSpan(parentCtx, CheckMeta{Name: "child"})
	tr.EndSpan(childSpan, "healthy", nil)
	parentSpan.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("child span should have parent span as parent")
	}
}

// TestTracer_ErrorRecording verifies errors mark the span as failed.
func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), CheckMeta{Name: "flaky"})
	tr.EndSpan(span, "", errors.New("context canceled"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected Error status, got %v", s.Status().Code)
	}
	if v := spanAttrs(s)["check.error"]; !v.AsBool() {
		t.Error("expected check.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

// TestTracer_UnhealthyWithoutError verifies an unhealthy status still fails the span.
func TestTracer_UnhealthyWithoutError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), CheckMeta{Name: "down"})
	tr.EndSpan(span, "unhealthy", nil)

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected Error status, got %v", s.Status().Code)
	}
	if v := spanAttrs(s)["check.error"]; v.AsBool() {
		t.Error("check.error should stay false without an error")
	}
}
