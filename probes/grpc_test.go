package probes

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jonwraymond/healthops/health"
)

func startHealthServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("billing", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus("search", healthpb.HealthCheckResponse_UNKNOWN)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(srv.Stop)

	return ln.Addr().String()
}

func TestGRPC(t *testing.T) {
	addr := startHealthServer(t)

	tests := []struct {
		service string
		want    health.Status
	}{
		{"", health.StatusHealthy},
		{"billing", health.StatusUnhealthy},
		{"search", health.StatusDegraded},
		{"missing", health.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run("service="+tt.service, func(t *testing.T) {
			svc := health.NewServices()
			svc.Register("backend", GRPCService(addr))
			scope, _ := svc.NewScope(context.Background())

			result, err := check(t, context.Background(), GRPC(GRPCConfig{Service: "backend", HealthService: tt.service}), scope)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.want, result.Description)
			}
		})
	}
}

func TestGRPC_Misconfigured(t *testing.T) {
	result, _ := check(t, context.Background(), GRPC(GRPCConfig{}), nil)
	if !errors.Is(result.Error, ErrMissingTarget) {
		t.Errorf("error = %v, want ErrMissingTarget", result.Error)
	}
}
