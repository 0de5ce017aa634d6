// Package health aggregates independently registered health probes into a
// single report.
//
// A Probe reports a Result whose Status is Healthy, Degraded or Unhealthy.
// Probes are declared by Registration values, assembled during bootstrap with
// a Builder and frozen by NewAggregator, which validates the set once.
//
// # Execution
//
// Each call to Aggregator.CheckHealth opens one Scope, runs the selected
// registrations sequentially in registration order and closes the scope. A
// probe error or panic becomes an unhealthy Entry and never stops the other
// checks. Cancellation is different: a cancelled context, or a probe returning
// a context error, aborts the invocation and no Report is returned.
//
//	opts := &health.Options{}
//	b := health.NewBuilder(opts)
//	_ = b.AddProbe("memory", health.NewMemoryProbe(health.MemoryProbeConfig{}), "ready")
//	_ = b.AddFunc("database", func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
//	    if err := db.PingContext(ctx); err != nil {
//	        return health.Unhealthy("database unreachable", err), nil
//	    }
//	    return health.Healthy("database connected"), nil
//	})
//
//	agg, err := health.NewAggregator(health.NewServices(), opts)
//	if err != nil {
//	    return err
//	}
//	report, err := agg.CheckHealth(ctx, health.ByTag("ready"))
//
// The overall status is the most severe entry status; an empty report is healthy.
//
// # Events
//
// The aggregator writes an event trail to an observe.Logger: processing
// begin/end, check begin/end, check errors and check data. Check data is only
// rendered when debug logging is enabled.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	_ = health.RegisterHandlers(mux, agg, health.HandlerConfig{MaxConcurrent: 4})
//
// /healthz never runs checks, /readyz and /health answer 200 only when the
// report is healthy and 503 otherwise.
package health
