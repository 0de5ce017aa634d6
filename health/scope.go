package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Scope is the per-invocation resource boundary probes are resolved from.
type Scope interface {
	// Resolve returns the named service.
	Resolve(name string) (any, error)

	// Close releases everything the scope created.
	Close() error
}

// ScopeFactory creates one Scope per invocation.
type ScopeFactory interface {
	NewScope(ctx context.Context) (Scope, error)
}

// ScopeFactoryFunc adapts a function to the ScopeFactory interface.
type ScopeFactoryFunc func(ctx context.Context) (Scope, error)

// NewScope calls f(ctx).
func (f ScopeFactoryFunc) NewScope(ctx context.Context) (Scope, error) {
	return f(ctx)
}

// ServiceFactory constructs a service for one scope.
type ServiceFactory func(ctx context.Context) (any, error)

// Services is a ScopeFactory backed by named constructors.
//
// Each scope constructs a service at most once, on first Resolve, and closes
// every constructed io.Closer when it is closed.
type Services struct {
	mu        sync.RWMutex
	factories map[string]ServiceFactory
}

// NewServices creates an empty service container.
func NewServices() *Services {
	return &Services{factories: make(map[string]ServiceFactory)}
}

// Register adds a constructor for name, replacing any previous one.
func (s *Services) Register(name string, factory ServiceFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[name] = factory
}

// RegisterValue adds a service that is the same value in every scope.
// Shared values are never closed by scopes.
func (s *Services) RegisterValue(name string, value any) {
	s.Register(name, func(context.Context) (any, error) {
		return shared{value}, nil
	})
}

// NewScope returns an isolated scope.
func (s *Services) NewScope(ctx context.Context) (Scope, error) {
	s.mu.RLock()
	factories := make(map[string]ServiceFactory, len(s.factories))
	for k, v := range s.factories {
		factories[k] = v
	}
	s.mu.RUnlock()

	return &serviceScope{
		ctx:       context.WithoutCancel(ctx),
		factories: factories,
		built:     make(map[string]any),
	}, nil
}

type shared struct{ value any }

type serviceScope struct {
	ctx       context.Context
	factories map[string]ServiceFactory
	group     singleflight.Group

	mu      sync.Mutex
	built   map[string]any
	closers []io.Closer
	closed  bool
}

func (s *serviceScope) Resolve(name string) (any, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrScopeClosed
	}
	if v, ok := s.built[name]; ok {
		s.mu.Unlock()
		return v, nil
	}
	factory, ok := s.factories[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		s.mu.Lock()
		if v, ok := s.built[name]; ok {
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		raw, err := factory(s.ctx)
		if err != nil {
			return nil, fmt.Errorf("health: resolve %q: %w", name, err)
		}

		value := raw
		sh, isShared := raw.(shared)
		if isShared {
			value = sh.value
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			if c, ok := value.(io.Closer); ok && !isShared {
				_ = c.Close()
			}
			return nil, ErrScopeClosed
		}
		s.built[name] = value
		if c, ok := value.(io.Closer); ok && !isShared {
			s.closers = append(s.closers, c)
		}
		return value, nil
	})
	return v, err
}

func (s *serviceScope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.built = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resolve fetches name from scope and asserts it to T.
func Resolve[T any](scope Scope, name string) (T, error) {
	var zero T
	if scope == nil {
		return zero, invalidArgument("scope", "requires a scope")
	}
	v, err := scope.Resolve(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q has type %T", ErrServiceNotFound, name, v)
	}
	return t, nil
}
