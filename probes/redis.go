package probes

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/healthops/health"
)

// RedisService returns a service constructor for a Redis client.
// The client is closed with its scope.
func RedisService(opts *redis.Options) health.ServiceFactory {
	return func(context.Context) (any, error) {
		return redis.NewClient(opts), nil
	}
}

// RedisConfig configures a Redis probe.
type RedisConfig struct {
	// Service names the scope service holding a redis.UniversalClient (required).
	Service string

	// Timeout bounds the check. Default: DefaultTimeout
	Timeout time.Duration

	// SlowThreshold reports degraded when PING takes longer. Zero disables.
	SlowThreshold time.Duration
}

// Redis returns a factory for a probe that sends PING.
func Redis(cfg RedisConfig) health.Factory {
	return func(scope health.Scope) health.Probe {
		return health.ProbeFunc(func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
			if cfg.Service == "" {
				return health.Unhealthy("no redis service configured", ErrMissingTarget), nil
			}
			client, err := health.Resolve[redis.UniversalClient](scope, cfg.Service)
			if err != nil {
				return failure(ctx, "resolve redis client", err)
			}

			checkCtx, cancel := withTimeout(ctx, cfg.Timeout)
			defer cancel()

			start := time.Now()
			if err := client.Ping(checkCtx).Err(); err != nil {
				return failure(ctx, "redis unreachable", err)
			}
			elapsed := time.Since(start)

			data := map[string]any{"latency_ms": millis(elapsed)}
			if stats := client.PoolStats(); stats != nil {
				data["total_conns"] = stats.TotalConns
				data["idle_conns"] = stats.IdleConns
				data["timeouts"] = stats.Timeouts
			}
			return latency("redis responded to PING", elapsed, cfg.SlowThreshold).WithData(data), nil
		})
	}
}
