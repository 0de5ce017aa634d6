package probes

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonwraymond/healthops/health"
)

// PostgresPool is a pgx pool that closes with its scope.
type PostgresPool struct {
	*pgxpool.Pool
}

// Close closes the pool.
func (p *PostgresPool) Close() error {
	p.Pool.Close()
	return nil
}

// PostgresService returns a service constructor opening a pool for dsn.
// The pool connects lazily, on the first ping.
func PostgresService(dsn string) health.ServiceFactory {
	return func(ctx context.Context) (any, error) {
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("probes: parse postgres dsn: %w", err)
		}
		cfg.MaxConns = 2
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("probes: open postgres pool: %w", err)
		}
		return &PostgresPool{Pool: pool}, nil
	}
}

// PostgresConfig configures a PostgreSQL probe.
type PostgresConfig struct {
	// Service names the scope service holding a *pgxpool.Pool, a *PostgresPool
	// or a *pgx.Conn (required).
	Service string

	// Query runs instead of a ping when set, e.g. "SELECT 1".
	Query string

	// Timeout bounds the check. Default: DefaultTimeout
	Timeout time.Duration

	// SlowThreshold reports degraded when the round trip takes longer. Zero disables.
	SlowThreshold time.Duration
}

type pgClient interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres returns a factory for a probe that pings a PostgreSQL server.
func Postgres(cfg PostgresConfig) health.Factory {
	return func(scope health.Scope) health.Probe {
		return health.ProbeFunc(func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
			if cfg.Service == "" {
				return health.Unhealthy("no postgres service configured", ErrMissingTarget), nil
			}
			client, err := health.Resolve[pgClient](scope, cfg.Service)
			if err != nil {
				return failure(ctx, "resolve postgres client", err)
			}

			checkCtx, cancel := withTimeout(ctx, cfg.Timeout)
			defer cancel()

			start := time.Now()
			if cfg.Query != "" {
				var out any
				err = client.QueryRow(checkCtx, cfg.Query).Scan(&out)
			} else {
				err = client.Ping(checkCtx)
			}
			if err != nil {
				return failure(ctx, "postgres unreachable", err)
			}
			elapsed := time.Since(start)

			data := map[string]any{"latency_ms": millis(elapsed)}
			if pool := poolOf(client); pool != nil {
				stat := pool.Stat()
				data["total_conns"] = stat.TotalConns()
				data["idle_conns"] = stat.IdleConns()
				data["acquired_conns"] = stat.AcquiredConns()
			}
			return latency("postgres reachable", elapsed, cfg.SlowThreshold).WithData(data), nil
		})
	}
}

func poolOf(c pgClient) *pgxpool.Pool {
	switch p := c.(type) {
	case *pgxpool.Pool:
		return p
	case *PostgresPool:
		return p.Pool
	default:
		return nil
	}
}
