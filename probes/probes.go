package probes

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/healthops/health"
)

// ErrMissingTarget indicates a probe was configured without an address.
var ErrMissingTarget = errors.New("probes: missing target")

// DefaultTimeout bounds a single probe when its config sets none.
const DefaultTimeout = 5 * time.Second

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// failure converts err into an unhealthy result. Once the caller's context is
// done the context error is returned instead, whatever form err takes.
func failure(ctx context.Context, desc string, err error) (health.Result, error) {
	if cerr := ctx.Err(); cerr != nil {
		return health.Result{}, cerr
	}
	return health.Unhealthy(desc+": "+err.Error(), err), nil
}

// latency grades a successful call by its duration.
func latency(ok string, elapsed, slow time.Duration) health.Result {
	if slow > 0 && elapsed > slow {
		return health.Degraded(ok + " (slow)")
	}
	return health.Healthy(ok)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
