package health

import (
	"context"
	"slices"
	"strings"
)

// Factory resolves a probe from the invocation's scope.
// It is called once per invocation; a nil return is reported as unhealthy.
type Factory func(scope Scope) Probe

// Registration declares one named probe.
type Registration struct {
	// Name is unique within a set, compared case-insensitively.
	Name string

	// FallbackStatus is declared metadata. The aggregator reports actual results
	// and never substitutes it.
	FallbackStatus Status

	// Tags are used by predicates.
	Tags []string

	// Factory produces the probe for each invocation.
	Factory Factory
}

// NewRegistration creates a registration. A zero fallback defaults to StatusUnhealthy.
func NewRegistration(name string, factory Factory, fallback Status, tags ...string) (*Registration, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("name", "requires a non-blank name")
	}
	if factory == nil {
		return nil, invalidArgument("factory", "requires a factory")
	}
	if fallback == 0 {
		fallback = StatusUnhealthy
	}
	if !fallback.Valid() {
		return nil, outOfRange("fallback", int(fallback), "requires a status within the bounds of the enumeration")
	}
	return &Registration{
		Name:           name,
		FallbackStatus: fallback,
		Tags:           slices.Clone(tags),
		Factory:        factory,
	}, nil
}

// ProbeRegistration registers a single probe instance shared across invocations.
func ProbeRegistration(name string, probe Probe, tags ...string) (*Registration, error) {
	if probe == nil {
		return nil, invalidArgument("probe", "requires a probe")
	}
	return NewRegistration(name, func(Scope) Probe { return probe }, StatusUnhealthy, tags...)
}

// HasTag reports whether the registration carries tag, ignoring case.
func (r *Registration) HasTag(tag string) bool {
	return slices.ContainsFunc(r.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// Options is the mutable registration set assembled during bootstrap.
// It is frozen when passed to NewAggregator.
type Options struct {
	Registrations []*Registration
}

// Builder appends registrations to an Options.
//
// Builder never de-duplicates; duplicate names are reported by NewAggregator.
type Builder struct {
	opts *Options
}

// NewBuilder returns a builder writing into opts. A nil opts starts a new set.
func NewBuilder(opts *Options) *Builder {
	if opts == nil {
		opts = &Options{}
	}
	return &Builder{opts: opts}
}

// Add appends reg.
func (b *Builder) Add(reg *Registration) error {
	if reg == nil {
		return invalidArgument("registration", "requires a registration")
	}
	b.opts.Registrations = append(b.opts.Registrations, reg)
	return nil
}

// AddProbe registers a shared probe instance under name.
func (b *Builder) AddProbe(name string, probe Probe, tags ...string) error {
	reg, err := ProbeRegistration(name, probe, tags...)
	if err != nil {
		return err
	}
	return b.Add(reg)
}

// AddFunc registers fn under name.
func (b *Builder) AddFunc(name string, fn func(ctx context.Context, hc *CheckContext) (Result, error), tags ...string) error {
	if fn == nil {
		return invalidArgument("fn", "requires a function")
	}
	return b.AddProbe(name, ProbeFunc(fn), tags...)
}

// Options returns the set the builder writes into.
func (b *Builder) Options() *Options {
	return b.opts
}
