// Package probes provides health.Probe implementations for common dependencies.
//
// Every constructor returns a health.Factory so clients can be resolved from
// the invocation's scope. Service constructors (RedisService, GRPCService,
// PostgresService) register a client per scope that is closed when the
// invocation ends.
//
// Failures are reported as unhealthy results. A context error is returned
// unchanged only when the caller's context is done, so the aggregator treats
// it as cancellation; a probe's own timeout is a failure.
package probes
