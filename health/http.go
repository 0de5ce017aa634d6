package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
)

// HandlerConfig configures the HTTP health handlers.
type HandlerConfig struct {
	// Timeout bounds one invocation. Default: 10 seconds
	Timeout time.Duration

	// MaxConcurrent bounds simultaneous invocations; excess requests get 429.
	// Zero means unbounded.
	MaxConcurrent int64

	// Readiness selects the checks run by the readiness endpoint. Default: all
	Readiness Predicate

	// Protect wraps the detailed endpoints, typically with authentication.
	Protect func(http.Handler) http.Handler
}

// Validate validates the configuration.
func (c HandlerConfig) Validate() error {
	if c.Timeout < 0 {
		return outOfRange("timeout", c.Timeout, "requires a non-negative timeout")
	}
	if c.MaxConcurrent < 0 {
		return outOfRange("max_concurrent", c.MaxConcurrent, "requires a non-negative limit")
	}
	return nil
}

// ReportResponse is the JSON form of a Report.
type ReportResponse struct {
	Status        string                   `json:"status" yaml:"status"`
	TotalDuration string                   `json:"totalDuration" yaml:"totalDuration"`
	Entries       map[string]EntryResponse `json:"entries" yaml:"entries"`
}

// EntryResponse is the JSON form of an Entry.
type EntryResponse struct {
	Status      string         `json:"status" yaml:"status"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Duration    string         `json:"duration" yaml:"duration"`
	Data        map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewReportResponse converts a report for serialization.
func NewReportResponse(report *Report) ReportResponse {
	resp := ReportResponse{
		Status:        report.Status.String(),
		TotalDuration: report.TotalDuration.String(),
		Entries:       make(map[string]EntryResponse, len(report.Entries)),
	}
	for name, e := range report.Entries {
		resp.Entries[name] = newEntryResponse(e)
	}
	return resp
}

func newEntryResponse(e Entry) EntryResponse {
	er := EntryResponse{
		Status:      e.Status.String(),
		Description: e.Description,
		Duration:    e.Duration.String(),
		Data:        encodableData(e.Data),
	}
	if e.Error != nil {
		er.Error = e.Error.Error()
	}
	return er
}

func statusCode(s Status) int {
	if s == StatusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// encodableData copies data, replacing values JSON cannot represent (NaN,
// funcs, channels) with their fmt.Sprint form.
func encodableData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, err := json.Marshal(v); err != nil {
			v = fmt.Sprint(v)
		}
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "health: encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

// LivenessHandler returns an HTTP handler for liveness probes.
// It reports that the process is serving and runs no checks.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler that runs the checks selected by
// predicate and answers with the overall status as plain text.
func ReadinessHandler(agg *Aggregator, predicate Predicate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := agg.CheckHealth(r.Context(), predicate)
		w.Header().Set("Content-Type", "text/plain")
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(statusCode(report.Status))
		switch report.Status {
		case StatusHealthy:
			_, _ = w.Write([]byte("OK"))
		case StatusDegraded:
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

// DetailedHandler returns an HTTP handler that serializes the full report.
//
// The filter query parameter narrows the checks with an expression accepted
// by ExprPredicate; an invalid expression is answered with 400.
func DetailedHandler(agg *Aggregator, predicate Predicate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pred := predicate
		if src := r.URL.Query().Get("filter"); src != "" {
			filter, err := ExprPredicate(src)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			pred = And(predicate, filter)
		}

		report, err := agg.CheckHealth(r.Context(), pred)
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, statusCode(report.Status), NewReportResponse(report))
	}
}

// SingleCheckHandler returns an HTTP handler for one named check.
// An empty name is taken from the {name} path value.
func SingleCheckHandler(agg *Aggregator, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checkName := name
		if checkName == "" {
			checkName = r.PathValue("name")
		}

		reg, ok := agg.Lookup(checkName)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": fmt.Sprintf("health: check %q not registered", checkName),
			})
			return
		}

		report, err := agg.CheckHealth(r.Context(), ByName(reg.Name))
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		entry := report.Entries[reg.Name]
		writeJSON(w, statusCode(entry.Status), newEntryResponse(entry))
	}
}

// Limit bounds each request to cfg.Timeout and at most cfg.MaxConcurrent
// simultaneous requests.
func Limit(next http.Handler, cfg HandlerConfig) http.Handler {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	var sem *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sem != nil {
			if !sem.TryAcquire(1) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many concurrent health checks", http.StatusTooManyRequests)
				return
			}
			defer sem.Release(1)
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RegisterHandlers registers all health check handlers on the given mux:
// /healthz, /readyz, /health and /health/{name}.
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator, config ...HandlerConfig) error {
	var cfg HandlerConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	protect := cfg.Protect
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}

	mux.HandleFunc("/healthz", LivenessHandler())
	mux.Handle("/readyz", Limit(ReadinessHandler(agg, cfg.Readiness), cfg))
	mux.Handle("/health", protect(Limit(DetailedHandler(agg, nil), cfg)))
	mux.Handle("/health/{name}", protect(Limit(SingleCheckHandler(agg, ""), cfg)))
	return nil
}
