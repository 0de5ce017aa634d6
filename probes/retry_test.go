package probes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/healthops/health"
	"github.com/jonwraymond/healthops/resilience"
)

func countingFactory(calls *int, results ...health.Result) health.Factory {
	return func(health.Scope) health.Probe {
		return health.ProbeFunc(func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
			r := results[min(*calls, len(results)-1)]
			*calls++
			return r, nil
		})
	}
}

func TestRetry(t *testing.T) {
	down := health.Unhealthy("down", errors.New("refused"))
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Strategy: resilience.BackoffConstant}

	tests := []struct {
		name      string
		results   []health.Result
		want      health.Status
		wantCalls int
	}{
		{"healthy first", []health.Result{health.Healthy("ok")}, health.StatusHealthy, 1},
		{"degraded accepted", []health.Result{health.Degraded("slow")}, health.StatusDegraded, 1},
		{"recovers", []health.Result{down, health.Healthy("ok")}, health.StatusHealthy, 2},
		{"stays down", []health.Result{down}, health.StatusUnhealthy, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			res, err := check(t, context.Background(), Retry(countingFactory(&calls, tt.results...), cfg), nil)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if res.Status != tt.want || calls != tt.wantCalls {
				t.Errorf("Status = %v after %d calls, want %v after %d", res.Status, calls, tt.want, tt.wantCalls)
			}
			if _, ok := res.Data["attempts"]; ok != (tt.wantCalls > 1) {
				t.Errorf("attempts data = %v", res.Data)
			}
		})
	}
}

func TestRetry_Cancellation(t *testing.T) {
	calls := 0
	factory := func(health.Scope) health.Probe {
		return health.ProbeFunc(func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
			calls++
			return health.Result{}, context.Canceled
		})
	}
	_, err := check(t, context.Background(), Retry(factory, resilience.RetryConfig{MaxAttempts: 5}), nil)
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("err = %v after %d calls, want context.Canceled after 1", err, calls)
	}
}

func TestRetry_NilProbe(t *testing.T) {
	f := Retry(func(health.Scope) health.Probe { return nil }, resilience.RetryConfig{})
	if p := f(nil); p != nil {
		t.Errorf("probe = %v, want nil", p)
	}
}
