// Package wiring turns healthd configuration into health registrations.
package wiring

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/healthops/auth"
	"github.com/jonwraymond/healthops/health"
	"github.com/jonwraymond/healthops/internal/config"
	"github.com/jonwraymond/healthops/observe"
	"github.com/jonwraymond/healthops/probes"
	"github.com/jonwraymond/healthops/resilience"
)

// Registrations builds one registration per configured check and registers the
// clients they need in svc.
func Registrations(checks []config.CheckConfig, svc *health.Services) (*health.Options, error) {
	b := health.NewBuilder(nil)
	for _, chk := range checks {
		factory, err := factoryFor(chk, svc)
		if err != nil {
			return nil, err
		}

		if chk.Retries > 0 {
			factory = probes.Retry(factory, resilience.RetryConfig{
				MaxAttempts:  chk.Retries + 1,
				InitialDelay: chk.RetryDelay,
				Jitter:       true,
			})
		}

		fallback := health.StatusUnhealthy
		if chk.Fallback != "" {
			fallback, err = health.ParseStatus(chk.Fallback)
			if err != nil {
				return nil, fmt.Errorf("wiring: check %q fallback: %w", chk.Name, err)
			}
		}

		reg, err := health.NewRegistration(chk.Name, factory, fallback, chk.Tags...)
		if err != nil {
			return nil, fmt.Errorf("wiring: check %q: %w", chk.Name, err)
		}
		if err := b.Add(reg); err != nil {
			return nil, err
		}
	}
	return b.Options(), nil
}

func serviceName(chk config.CheckConfig) string {
	return chk.Type + ":" + chk.Name
}

func factoryFor(chk config.CheckConfig, svc *health.Services) (health.Factory, error) {
	switch chk.Type {
	case "http":
		return probes.HTTP(probes.HTTPConfig{
			URL:            chk.Target,
			ExpectedStatus: chk.ExpectedStatus,
			Timeout:        chk.Timeout,
			SlowThreshold:  chk.SlowThreshold,
		}), nil
	case "tcp":
		return probes.TCP(probes.TCPConfig{
			Address:       chk.Target,
			Timeout:       chk.Timeout,
			SlowThreshold: chk.SlowThreshold,
		}), nil
	case "postgres":
		name := serviceName(chk)
		svc.Register(name, probes.PostgresService(chk.Target))
		return probes.Postgres(probes.PostgresConfig{
			Service:       name,
			Query:         chk.Query,
			Timeout:       chk.Timeout,
			SlowThreshold: chk.SlowThreshold,
		}), nil
	case "redis":
		name := serviceName(chk)
		svc.Register(name, probes.RedisService(&redis.Options{
			Addr:     chk.Target,
			Password: chk.Password,
			DB:       chk.DB,
		}))
		return probes.Redis(probes.RedisConfig{
			Service:       name,
			Timeout:       chk.Timeout,
			SlowThreshold: chk.SlowThreshold,
		}), nil
	case "grpc":
		name := serviceName(chk)
		svc.Register(name, probes.GRPCService(chk.Target))
		return probes.GRPC(probes.GRPCConfig{
			Service:       name,
			HealthService: chk.HealthService,
			Timeout:       chk.Timeout,
		}), nil
	case "memory":
		probe := health.NewMemoryProbe(health.MemoryProbeConfig{MaxAlloc: chk.MaxAllocMB << 20})
		return func(health.Scope) health.Probe { return probe }, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCheckType, chk.Type)
	}
}

// Protect returns the auth middleware for the detailed endpoints, or nil when
// auth is not configured.
func Protect(cfg config.AuthConfig, logger observe.Logger) (func(http.Handler) http.Handler, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var authenticators []auth.Authenticator
	if cfg.JWTSecret != "" {
		jwtAuth, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Key:      []byte(cfg.JWTSecret),
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
		})
		if err != nil {
			return nil, err
		}
		authenticators = append(authenticators, jwtAuth)
	}
	if len(cfg.APIKeys) > 0 {
		store := auth.NewMemoryAPIKeyStore()
		for _, k := range cfg.APIKeys {
			store.AddKey(k.ID, k.Key, k.Principal, k.Roles...)
		}
		authenticators = append(authenticators, auth.NewAPIKeyAuthenticator("", store))
	}

	return auth.Middleware(auth.MiddlewareConfig{
		Authenticators: authenticators,
		RequiredRole:   cfg.RequiredRole,
		Logger:         logger,
	}), nil
}

// Aggregator builds the aggregator for cfg.Checks.
func Aggregator(cfg *config.Config, acfg health.AggregatorConfig) (*health.Aggregator, error) {
	svc := health.NewServices()
	opts, err := Registrations(cfg.Checks, svc)
	if err != nil {
		return nil, err
	}
	return health.NewAggregator(svc, opts, acfg)
}

// Handlers builds the HTTP handler settings for cfg.Server and cfg.Auth.
func Handlers(cfg *config.Config, logger observe.Logger) (health.HandlerConfig, error) {
	protect, err := Protect(cfg.Auth, logger)
	if err != nil {
		return health.HandlerConfig{}, err
	}
	hc := health.HandlerConfig{
		Timeout:       cfg.Server.CheckTimeout,
		MaxConcurrent: cfg.Server.MaxConcurrent,
		Protect:       protect,
	}
	if len(cfg.Server.ReadinessTags) > 0 {
		hc.Readiness = health.ByTag(cfg.Server.ReadinessTags...)
	}
	return hc, nil
}
