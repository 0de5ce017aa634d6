package probes

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jonwraymond/healthops/health"
)

// GRPCService returns a service constructor for a client connection to target.
// Without options the connection uses insecure transport credentials.
func GRPCService(target string, opts ...grpc.DialOption) health.ServiceFactory {
	return func(context.Context) (any, error) {
		dialOpts := opts
		if len(dialOpts) == 0 {
			dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
		}
		conn, err := grpc.NewClient(target, dialOpts...)
		if err != nil {
			return nil, fmt.Errorf("probes: grpc client for %s: %w", target, err)
		}
		return conn, nil
	}
}

// GRPCConfig configures a gRPC health probe.
type GRPCConfig struct {
	// Service names the scope service holding a grpc.ClientConnInterface (required).
	Service string

	// HealthService is the service name sent in the health request.
	// Empty asks about the server as a whole.
	HealthService string

	// Timeout bounds the call. Default: DefaultTimeout
	Timeout time.Duration
}

// GRPC returns a factory for a probe calling grpc.health.v1.Health/Check.
func GRPC(cfg GRPCConfig) health.Factory {
	return func(scope health.Scope) health.Probe {
		return health.ProbeFunc(func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
			if cfg.Service == "" {
				return health.Unhealthy("no grpc service configured", ErrMissingTarget), nil
			}
			conn, err := health.Resolve[grpc.ClientConnInterface](scope, cfg.Service)
			if err != nil {
				return failure(ctx, "resolve grpc client", err)
			}

			callCtx, cancel := withTimeout(ctx, cfg.Timeout)
			defer cancel()

			resp, err := healthpb.NewHealthClient(conn).Check(callCtx, &healthpb.HealthCheckRequest{Service: cfg.HealthService})
			if err != nil {
				return failure(ctx, "grpc health check failed", err)
			}

			status := resp.GetStatus()
			data := map[string]any{"serving_status": status.String()}
			switch status {
			case healthpb.HealthCheckResponse_SERVING:
				return health.Healthy("serving").WithData(data), nil
			case healthpb.HealthCheckResponse_UNKNOWN:
				return health.Degraded("serving status unknown").WithData(data), nil
			default:
				return health.Unhealthy(status.String(),
					fmt.Errorf("%w: grpc serving status %s", health.ErrCheckFailed, status)).WithData(data), nil
			}
		})
	}
}
