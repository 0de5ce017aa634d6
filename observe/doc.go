// Package observe provides observability primitives for health check execution.
//
// It is a pure instrumentation library: no check execution, no transport, no I/O
// beyond exporter setup. Consumers wire the Logger into a health.Aggregator and
// the Middleware around each check run to get spans and metrics per check.
//
// # Logging
//
// Logger is a minimal leveled interface. NewLogger writes JSON lines; NewZapLogger
// adapts an existing *zap.Logger. Both report whether a level is enabled so callers
// can skip building expensive payloads:
//
//	if logger.Enabled(observe.LevelDebug) {
//	    logger.Debug(ctx, "payload", observe.Field{Key: "data", Value: render()})
//	}
//
// Fields whose last key segment names a credential (see RedactedFields) are
// written as "[REDACTED]" by both loggers.
//
// # Tracing and metrics
//
// LoggingConfig.Logger hands a host logger to the Observer; the tracer and
// meter providers are installed globally and flushed by Shutdown.
//
//	obs, err := observe.NewObserver(ctx, observe.Config{ServiceName: "healthd", ...})
//	mw, err := observe.MiddlewareFromObserver(obs)
package observe
