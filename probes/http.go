package probes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/healthops/health"
)

// HTTPConfig configures an HTTP GET probe.
type HTTPConfig struct {
	// URL is the endpoint to request (required).
	URL string

	// ExpectedStatus is the required response code. Zero accepts any 2xx.
	ExpectedStatus int

	// Timeout bounds the request. Default: DefaultTimeout
	Timeout time.Duration

	// SlowThreshold reports degraded when the response takes longer. Zero disables.
	SlowThreshold time.Duration

	// Client performs the request. Default: http.DefaultClient
	Client *http.Client
}

// HTTP returns a factory for a probe that issues a GET request.
func HTTP(cfg HTTPConfig) health.Factory {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return func(health.Scope) health.Probe {
		return &httpProbe{cfg: cfg}
	}
}

type httpProbe struct {
	cfg HTTPConfig
}

func (p *httpProbe) Check(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
	if p.cfg.URL == "" {
		return health.Unhealthy("no URL configured", ErrMissingTarget), nil
	}

	reqCtx, cancel := withTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return health.Unhealthy("invalid request", err), nil
	}

	start := time.Now()
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return failure(ctx, "request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	elapsed := time.Since(start)

	data := map[string]any{
		"url":         p.cfg.URL,
		"status_code": resp.StatusCode,
		"latency_ms":  millis(elapsed),
	}

	if !p.statusOK(resp.StatusCode) {
		return health.Unhealthy(
			fmt.Sprintf("unexpected status %d", resp.StatusCode),
			fmt.Errorf("%w: %s returned %d", health.ErrCheckFailed, p.cfg.URL, resp.StatusCode),
		).WithData(data), nil
	}
	return latency(fmt.Sprintf("%s returned %d", p.cfg.URL, resp.StatusCode), elapsed, p.cfg.SlowThreshold).WithData(data), nil
}

func (p *httpProbe) statusOK(code int) bool {
	if p.cfg.ExpectedStatus != 0 {
		return code == p.cfg.ExpectedStatus
	}
	return code >= 200 && code < 300
}
