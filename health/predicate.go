package health

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Predicate selects which registrations an invocation runs.
// A nil Predicate selects every registration.
type Predicate func(reg *Registration) bool

// ByName selects registrations whose name matches one of names, ignoring case.
func ByName(names ...string) Predicate {
	return func(reg *Registration) bool {
		return slices.ContainsFunc(names, func(n string) bool {
			return strings.EqualFold(n, reg.Name)
		})
	}
}

// ByTag selects registrations carrying at least one of tags.
func ByTag(tags ...string) Predicate {
	return func(reg *Registration) bool {
		return slices.ContainsFunc(tags, reg.HasTag)
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(reg *Registration) bool {
		return !p.matches(reg)
	}
}

// And selects registrations matched by every predicate.
func And(ps ...Predicate) Predicate {
	return func(reg *Registration) bool {
		for _, p := range ps {
			if !p.matches(reg) {
				return false
			}
		}
		return true
	}
}

func (p Predicate) matches(reg *Registration) bool {
	return p == nil || p(reg)
}

// predicateEnv is the environment filter expressions are evaluated against.
type predicateEnv struct {
	Name     string   `expr:"name"`
	Tags     []string `expr:"tags"`
	Fallback string   `expr:"fallback"`
}

// ExprPredicate compiles a boolean expression over a registration's name, tags
// and fallback status, for example:
//
//	"ready" in tags && name != "slow"
//
// A registration is skipped if the expression fails at run time.
func ExprPredicate(src string) (Predicate, error) {
	program, err := expr.Compile(src, expr.Env(predicateEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: filter expression: %w", ErrInvalidArgument, err)
	}
	return exprPredicate(program), nil
}

func exprPredicate(program *vm.Program) Predicate {
	return func(reg *Registration) bool {
		out, err := expr.Run(program, predicateEnv{
			Name:     reg.Name,
			Tags:     reg.Tags,
			Fallback: reg.FallbackStatus.String(),
		})
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}
}
