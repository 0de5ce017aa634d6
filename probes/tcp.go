package probes

import (
	"context"
	"net"
	"time"

	"github.com/jonwraymond/healthops/health"
)

// TCPConfig configures a TCP dial probe.
type TCPConfig struct {
	// Address is host:port (required).
	Address string

	// Timeout bounds the dial. Default: DefaultTimeout
	Timeout time.Duration

	// SlowThreshold reports degraded when the dial takes longer. Zero disables.
	SlowThreshold time.Duration
}

// TCP returns a factory for a probe that opens and closes a TCP connection.
func TCP(cfg TCPConfig) health.Factory {
	return func(health.Scope) health.Probe {
		return health.ProbeFunc(func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
			if cfg.Address == "" {
				return health.Unhealthy("no address configured", ErrMissingTarget), nil
			}

			dialCtx, cancel := withTimeout(ctx, cfg.Timeout)
			defer cancel()

			var d net.Dialer
			start := time.Now()
			conn, err := d.DialContext(dialCtx, "tcp", cfg.Address)
			if err != nil {
				return failure(ctx, "dial failed", err)
			}
			elapsed := time.Since(start)
			_ = conn.Close()

			return latency(cfg.Address+" accepted connection", elapsed, cfg.SlowThreshold).WithData(map[string]any{
				"address":    cfg.Address,
				"latency_ms": millis(elapsed),
			}), nil
		})
	}
}
