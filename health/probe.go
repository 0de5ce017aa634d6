package health

import (
	"context"
	"errors"
	"maps"
)

// Result is what a probe reports for one execution.
type Result struct {
	Status      Status
	Description string
	Error       error
	Data        map[string]any
}

// Healthy returns a healthy result with the given description.
func Healthy(description string) Result {
	return Result{Status: StatusHealthy, Description: description}
}

// Degraded returns a degraded result with the given description.
func Degraded(description string) Result {
	return Result{Status: StatusDegraded, Description: description}
}

// Unhealthy returns an unhealthy result with the given description and error.
func Unhealthy(description string, err error) Result {
	return Result{Status: StatusUnhealthy, Description: description, Error: err}
}

// WithData returns a copy of r with data merged into its data map.
func (r Result) WithData(data map[string]any) Result {
	merged := make(map[string]any, len(r.Data)+len(data))
	maps.Copy(merged, r.Data)
	maps.Copy(merged, data)
	r.Data = merged
	return r
}

// CheckContext is shared by every probe within one invocation.
//
// Registration is set to the registration currently executing. Values may be
// used by probes to hand information to later probes in the same invocation.
type CheckContext struct {
	Registration *Registration
	Values       map[string]any
}

// Probe executes a single health test.
//
// Contract:
//   - Context: a probe reports cancellation by returning an error for which
//     IsCanceled is true. Cancellation aborts the whole invocation. The engine
//     does not tell a probe's own timeout apart from the caller's: a probe
//     whose private deadline fires while ctx is still live should return an
//     unhealthy Result instead of the context error, as PingProbe does.
//   - Errors: any other error is converted to an unhealthy entry.
//   - Concurrency: a probe shared across invocations must be safe for concurrent use.
type Probe interface {
	Check(ctx context.Context, hc *CheckContext) (Result, error)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context, hc *CheckContext) (Result, error)

// Check calls f(ctx, hc).
func (f ProbeFunc) Check(ctx context.Context, hc *CheckContext) (Result, error) {
	return f(ctx, hc)
}

// PingProbe returns a probe that is healthy when ping succeeds.
// Context errors returned by ping are passed through as cancellation.
func PingProbe(ping func(ctx context.Context) error, healthyDescription string) Probe {
	return ProbeFunc(func(ctx context.Context, _ *CheckContext) (Result, error) {
		if err := ping(ctx); err != nil {
			if IsCanceled(err) && ctx.Err() != nil {
				return Result{}, err
			}
			return Unhealthy(err.Error(), err), nil
		}
		return Healthy(healthyDescription), nil
	})
}

// IsCanceled reports whether err signals cancellation rather than failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
