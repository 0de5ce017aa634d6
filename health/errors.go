package health

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument indicates a programming error in how the package was called:
	// a nil dependency, an invalid registration or a zero-value Entry.
	ErrInvalidArgument = errors.New("health: invalid argument")

	// ErrOutOfRange indicates a status or duration outside its valid range.
	ErrOutOfRange = errors.New("health: argument out of range")

	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrNoInstance indicates a registration factory returned no probe.
	ErrNoInstance = errors.New("health: no health check instance was returned by the factory")

	// ErrServiceNotFound indicates a scope was asked for a service it does not know.
	ErrServiceNotFound = errors.New("health: service not found")

	// ErrScopeClosed indicates a scope was used after Close.
	ErrScopeClosed = errors.New("health: scope closed")
)

// invalidArgument builds an ErrInvalidArgument error naming the offending argument.
func invalidArgument(arg, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidArgument, arg, reason)
}

// outOfRange builds an ErrOutOfRange error naming the offending argument and value.
func outOfRange(arg string, value any, reason string) error {
	return fmt.Errorf("%w %q (%v): %s", ErrOutOfRange, arg, value, reason)
}

// DuplicateNamesError reports every registration name that occurs more than once,
// compared case-insensitively.
type DuplicateNamesError struct {
	Names []string
}

func (e *DuplicateNamesError) Error() string {
	return fmt.Sprintf("%s \"options\": requires unique names for the health check registrations, but got duplicate name(s): %s",
		ErrInvalidArgument, strings.Join(e.Names, ", "))
}

// Is makes DuplicateNamesError match ErrInvalidArgument.
func (e *DuplicateNamesError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// PanicError wraps a value recovered from a panicking probe.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("health check panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
