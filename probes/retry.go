package probes

import (
	"context"

	"github.com/jonwraymond/healthops/health"
	"github.com/jonwraymond/healthops/resilience"
)

// Retry wraps the probes built by factory so an unhealthy outcome is retried
// with backoff. Degraded and healthy results are accepted at once and
// cancellation is never retried. Results that needed more than one attempt
// carry an "attempts" data entry.
//
// The retries happen inside one probe execution: the aggregator still calls
// the wrapped probe once per invocation and schedules nothing itself.
func Retry(factory health.Factory, cfg resilience.RetryConfig) health.Factory {
	return func(scope health.Scope) health.Probe {
		probe := factory(scope)
		if probe == nil {
			return nil
		}
		return health.ProbeFunc(func(ctx context.Context, hc *health.CheckContext) (health.Result, error) {
			res, attempts, err := resilience.Do(ctx, cfg, func(ctx context.Context) (health.Result, error) {
				return probe.Check(ctx, hc)
			}, settled)
			if err != nil {
				return res, err
			}
			if attempts > 1 {
				res = res.WithData(map[string]any{"attempts": attempts})
			}
			return res, nil
		})
	}
}

func settled(res health.Result, err error) bool {
	if err != nil {
		return health.IsCanceled(err)
	}
	return res.Status != health.StatusUnhealthy
}
