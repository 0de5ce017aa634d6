package probes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/healthops/health"
)

func TestRedis_Unreachable(t *testing.T) {
	svc := health.NewServices()
	svc.Register("cache", RedisService(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}))
	scope, _ := svc.NewScope(context.Background())

	result, err := check(t, context.Background(), Redis(RedisConfig{Service: "cache", Timeout: time.Second}), scope)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
}

func TestRedis_Misconfigured(t *testing.T) {
	result, _ := check(t, context.Background(), Redis(RedisConfig{}), nil)
	if !errors.Is(result.Error, ErrMissingTarget) {
		t.Errorf("error = %v, want ErrMissingTarget", result.Error)
	}

	svc := health.NewServices()
	svc.RegisterValue("cache", "not a client")
	scope, _ := svc.NewScope(context.Background())
	result, _ = check(t, context.Background(), Redis(RedisConfig{Service: "cache"}), scope)
	if !errors.Is(result.Error, health.ErrServiceNotFound) {
		t.Errorf("error = %v, want ErrServiceNotFound", result.Error)
	}
}

func TestRedis_CallerCancellation(t *testing.T) {
	svc := health.NewServices()
	svc.Register("cache", RedisService(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}))
	scope, _ := svc.NewScope(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := check(t, ctx, Redis(RedisConfig{Service: "cache"}), scope); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
