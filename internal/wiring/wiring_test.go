package wiring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonwraymond/healthops/health"
	"github.com/jonwraymond/healthops/internal/config"
)

func TestRegistrations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := health.NewServices()
	opts, err := Registrations([]config.CheckConfig{
		{Name: "api", Type: "http", Target: srv.URL, Tags: []string{"ready"}},
		{Name: "heap", Type: "memory", MaxAllocMB: 1 << 20, Fallback: "degraded"},
		{Name: "cache", Type: "redis", Target: "127.0.0.1:1"},
		{Name: "db", Type: "postgres", Target: "postgres://u@127.0.0.1:1/db"},
		{Name: "backend", Type: "grpc", Target: "127.0.0.1:1"},
		{Name: "port", Type: "tcp", Target: "127.0.0.1:1", Retries: 2, RetryDelay: time.Millisecond},
	}, svc)
	if err != nil {
		t.Fatalf("Registrations() error = %v", err)
	}
	if len(opts.Registrations) != 6 {
		t.Fatalf("registrations = %d, want 6", len(opts.Registrations))
	}
	if opts.Registrations[1].FallbackStatus != health.StatusDegraded {
		t.Errorf("fallback = %v, want degraded", opts.Registrations[1].FallbackStatus)
	}

	agg, err := health.NewAggregator(svc, opts)
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}
	report, err := agg.CheckHealth(context.Background(), health.ByTag("ready"))
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != health.StatusHealthy || len(report.Entries) != 1 {
		t.Errorf("report = %+v", report)
	}

	report, err = agg.CheckHealth(context.Background(), health.ByName("port"))
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Entries["port"].Data["attempts"]; got != 3 {
		t.Errorf("port attempts = %v, want 3", got)
	}

	scope, _ := svc.NewScope(context.Background())
	defer scope.Close()
	for _, name := range []string{"redis:cache", "postgres:db", "grpc:backend"} {
		if _, err := scope.Resolve(name); err != nil {
			t.Errorf("Resolve(%q) error = %v", name, err)
		}
	}
}

func TestRegistrations_Errors(t *testing.T) {
	_, err := Registrations([]config.CheckConfig{{Name: "x", Type: "smtp"}}, health.NewServices())
	if !errors.Is(err, config.ErrUnknownCheckType) {
		t.Errorf("unknown type error = %v", err)
	}
	_, err = Registrations([]config.CheckConfig{{Name: "x", Type: "memory", Fallback: "fine"}}, health.NewServices())
	if !errors.Is(err, health.ErrInvalidArgument) {
		t.Errorf("bad fallback error = %v", err)
	}
}

func TestProtect(t *testing.T) {
	mw, err := Protect(config.AuthConfig{}, nil)
	if err != nil || mw != nil {
		t.Errorf("Protect(disabled) = %v, %v", mw != nil, err)
	}

	mw, err = Protect(config.AuthConfig{
		JWTSecret: "s3cret",
		APIKeys:   []config.APIKeyConfig{{ID: "k1", Key: "key", Principal: "monitor"}},
	}, nil)
	if err != nil || mw == nil {
		t.Fatalf("Protect() = %v, %v", mw != nil, err)
	}

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	for key, want := range map[string]int{"key": http.StatusOK, "": http.StatusUnauthorized} {
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		if key != "" {
			r.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != want {
			t.Errorf("key %q: Status = %d, want %d", key, rec.Code, want)
		}
	}
}

func TestAggregatorAndHandlers(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{ReadinessTags: []string{"ready"}},
		Checks: []config.CheckConfig{
			{Name: "heap", Type: "memory", MaxAllocMB: 1 << 20, Tags: []string{"ready"}},
			{Name: "port", Type: "tcp", Target: "127.0.0.1:1"},
		},
	}
	agg, err := Aggregator(cfg, health.AggregatorConfig{})
	if err != nil {
		t.Fatalf("Aggregator() error = %v", err)
	}
	hc, err := Handlers(cfg, nil)
	if err != nil {
		t.Fatalf("Handlers() error = %v", err)
	}
	if hc.Protect != nil {
		t.Error("Protect set without auth config")
	}

	mux := http.NewServeMux()
	if err := health.RegisterHandlers(mux, agg, hc); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/readyz = %d, want 200 (tcp check is not tagged ready)", rec.Code)
	}
}
