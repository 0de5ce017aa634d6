// Package resilience retries flaky operations with backoff.
//
// Health probes use it to give a backend a few attempts before reporting it
// unhealthy:
//
//	result, attempts, err := resilience.Do(ctx, resilience.RetryConfig{MaxAttempts: 3},
//		func(ctx context.Context) (health.Result, error) { return probe.Check(ctx, hc) },
//		func(r health.Result, err error) bool { return err == nil && r.Status != health.StatusUnhealthy },
//	)
//
// The context is checked between attempts; a cancelled context stops the loop
// and its error is returned.
package resilience
