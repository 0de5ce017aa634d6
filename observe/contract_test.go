package observe

import (
	"context"
	"testing"
	"time"
)

func TestLoggerContract_NopWithCheck(t *testing.T) {
	logger := NopLogger()
	if logger.WithCheck(CheckMeta{Name: "noop"}) == nil {
		t.Fatalf("WithCheck should return non-nil logger")
	}
	logger.Debug(context.Background(), "ignored", Field{Key: "k", Value: 1})
}

func TestMetricsContract_NoPanic(t *testing.T) {
	NopMetrics().RecordCheck(context.Background(), CheckMeta{Name: "noop"}, "healthy", 10*time.Millisecond, nil)
}

func TestTracerContract_NoPanic(t *testing.T) {
	tracer := NopTracer()
	_, span := tracer.StartSpan(context.Background(), CheckMeta{Name: "noop"})
	tracer.EndSpan(span, "healthy", nil)
}
