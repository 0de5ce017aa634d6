package health

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jonwraymond/healthops/observe"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Logger receives the health check event trail. Default: no-op.
	Logger observe.Logger

	// Tracer wraps each check in a span. Default: no-op.
	Tracer observe.Tracer

	// Metrics records per-check counters and durations. Default: no-op.
	Metrics observe.Metrics
}

// Aggregator runs a frozen set of registrations and rolls their results into a Report.
//
// Contract:
//   - Concurrency: CheckHealth is safe for concurrent use; invocations never share a scope.
//   - Context: cancellation aborts the invocation and no Report is returned.
//   - Errors: probe failures become unhealthy entries and never abort sibling checks.
type Aggregator struct {
	scopes        ScopeFactory
	registrations []*Registration
	logger        observe.Logger
	middleware    *observe.Middleware
}

// NewAggregator validates opts and freezes a copy of its registrations.
// It never runs a probe.
func NewAggregator(scopes ScopeFactory, opts *Options, config ...AggregatorConfig) (*Aggregator, error) {
	if scopes == nil {
		return nil, invalidArgument("scopes", "requires a scope factory to create an isolated scope per health check invocation")
	}
	if opts == nil {
		return nil, invalidArgument("options", "requires a set of health check registrations")
	}
	if slices.Contains(opts.Registrations, nil) {
		return nil, invalidArgument("options", "requires all health check registrations to be present")
	}
	for _, reg := range opts.Registrations {
		if reg.Factory == nil {
			return nil, invalidArgument("options", fmt.Sprintf("requires a factory for health check registration %q", reg.Name))
		}
	}
	if dups := duplicateNames(opts.Registrations); len(dups) > 0 {
		return nil, &DuplicateNamesError{Names: dups}
	}

	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	registrations := make([]*Registration, len(opts.Registrations))
	for i, reg := range opts.Registrations {
		cp := *reg
		cp.Tags = slices.Clone(reg.Tags)
		registrations[i] = &cp
	}

	return &Aggregator{
		scopes:        scopes,
		registrations: registrations,
		logger:        cfg.Logger,
		middleware:    observe.NewMiddleware(cfg.Tracer, cfg.Metrics),
	}, nil
}

// duplicateNames returns every name occurring more than once, ignoring case,
// in order of first appearance and spelled as it first appeared.
func duplicateNames(regs []*Registration) []string {
	first := make(map[string]int, len(regs))
	counts := make(map[string]int, len(regs))
	var dups []string
	for i, reg := range regs {
		key := strings.ToLower(reg.Name)
		if _, ok := first[key]; !ok {
			first[key] = i
		}
		counts[key]++
		if counts[key] == 2 {
			dups = append(dups, regs[first[key]].Name)
		}
	}
	return dups
}

// Names returns the registration names in execution order.
func (a *Aggregator) Names() []string {
	names := make([]string, len(a.registrations))
	for i, reg := range a.registrations {
		names[i] = reg.Name
	}
	return names
}

// Lookup returns the registration with the given name, ignoring case.
func (a *Aggregator) Lookup(name string) (*Registration, bool) {
	for _, reg := range a.registrations {
		if strings.EqualFold(reg.Name, name) {
			return reg, true
		}
	}
	return nil, false
}

// CheckHealth runs every registration accepted by predicate, in order, and
// returns the aggregate report. A nil predicate accepts everything.
func (a *Aggregator) CheckHealth(ctx context.Context, predicate Predicate) (*Report, error) {
	scope, err := a.scopes.NewScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("health: create scope: %w", err)
	}
	defer func() {
		if cerr := scope.Close(); cerr != nil {
			a.logger.Warn(ctx, "health check scope did not close cleanly", observe.Field{Key: "error", Value: cerr})
		}
	}()

	total := StartStopwatch()
	_ = LogProcessingBegin(ctx, a.logger)

	hc := &CheckContext{Values: make(map[string]any)}
	entries := make(map[string]Entry, len(a.registrations))
	for _, reg := range a.registrations {
		if predicate != nil && !predicate(reg) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := a.runCheck(ctx, scope, hc, reg)
		if err != nil {
			return nil, err
		}
		entries[reg.Name] = entry
	}

	total = total.Stop()
	report := NewReport(entries, total.Elapsed())
	_ = LogProcessingEnd(ctx, a.logger, report.Status, report.TotalDuration)
	return report, nil
}

// runCheck executes one registration. The only error it returns is cancellation.
func (a *Aggregator) runCheck(ctx context.Context, scope Scope, hc *CheckContext, reg *Registration) (Entry, error) {
	var entry Entry
	exec := a.middleware.Wrap(func(ctx context.Context, _ observe.CheckMeta) (string, error) {
		var err error
		entry, err = a.execute(ctx, scope, hc, reg)
		if err != nil {
			return "", err
		}
		return entry.Status.String(), nil
	})
	if _, err := exec(ctx, checkMeta(reg)); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (a *Aggregator) execute(ctx context.Context, scope Scope, hc *CheckContext, reg *Registration) (Entry, error) {
	probe, ferr := resolveProbe(reg, scope)

	sw := StartStopwatch()
	_ = LogCheckBegin(ctx, a.logger, reg)

	if ferr != nil {
		return a.failed(ctx, reg, ferr, sw.Elapsed()), nil
	}
	if probe == nil {
		entry := Entry{
			Status:      StatusUnhealthy,
			Description: "no health check instance was returned by the factory",
			Duration:    sw.Elapsed(),
			Data:        map[string]any{},
		}
		_ = LogCheckEndFailed(ctx, a.logger, reg, entry, entry.Duration)
		return entry, nil
	}

	hc.Registration = reg
	result, err := runProbe(ctx, probe, hc)
	if err != nil {
		var pe *PanicError
		if !errors.As(err, &pe) && IsCanceled(err) {
			return Entry{}, err
		}
		return a.failed(ctx, reg, err, sw.Elapsed()), nil
	}

	entry := newEntry(result, sw.Elapsed())
	if err := LogCheckEnd(ctx, a.logger, reg, entry, entry.Duration); err != nil {
		return a.failed(ctx, reg, err, sw.Elapsed()), nil
	}
	if err := LogCheckData(ctx, a.logger, reg, entry); err != nil {
		return a.failed(ctx, reg, err, sw.Elapsed()), nil
	}
	return entry, nil
}

func (a *Aggregator) failed(ctx context.Context, reg *Registration, err error, d time.Duration) Entry {
	_ = LogCheckError(ctx, a.logger, reg, err, d)
	return Entry{
		Status:      StatusUnhealthy,
		Description: err.Error(),
		Duration:    d,
		Error:       err,
		Data:        map[string]any{},
	}
}

func resolveProbe(reg *Registration, scope Scope) (probe Probe, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return reg.Factory(scope), nil
}

func runProbe(ctx context.Context, probe Probe, hc *CheckContext) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return probe.Check(ctx, hc)
}

// Probe returns the aggregator as a single probe named "aggregate".
// Its data holds one summary per entry.
func (a *Aggregator) Probe() Probe {
	return &aggregateProbe{agg: a}
}

type aggregateProbe struct {
	agg *Aggregator
}

func (p *aggregateProbe) Name() string {
	return "aggregate"
}

func (p *aggregateProbe) Check(ctx context.Context, _ *CheckContext) (Result, error) {
	report, err := p.agg.CheckHealth(ctx, nil)
	if err != nil {
		return Result{}, err
	}

	data := make(map[string]any, len(report.Entries))
	for name, e := range report.Entries {
		data[name] = map[string]any{
			"status":      e.Status.String(),
			"description": e.Description,
			"duration":    e.Duration.String(),
		}
	}

	var description string
	switch report.Status {
	case StatusHealthy:
		description = "all checks passed"
	case StatusDegraded:
		description = "some checks degraded"
	default:
		description = "some checks failed"
	}

	return Result{Status: report.Status, Description: description, Data: data}, nil
}
