// Package hooks implements the named predicate factories that filter
// candidate matches. A registry maps hook names to factories; resolving
// a name with its argument yields a predicate over (sequence, start,
// end). Callers merge their own hooks into a registry before rules are
// compiled; registering an existing name replaces it, last registration
// wins.
package hooks

import (
	"errors"
	"fmt"

	"replacy/internal/annotate"
)

// ErrUnknownHook is returned when a rule names a hook that was never
// registered.
var ErrUnknownHook = errors.New("unknown hook")

// Predicate inspects a candidate span [start, end) of a token sequence.
type Predicate func(seq []annotate.Token, start, end int) bool

// Factory builds a predicate from the hook's single optional argument.
// arg is whatever the rule file carried: nil, a scalar, a string, or a
// nested list/map.
type Factory func(arg any) (Predicate, error)

// Registry maps hook names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry pre-populated with the built-in hooks.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	registerBuiltins(r)
	return r
}

// Register adds or replaces a factory under name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Resolve builds the predicate for name with the given argument.
func (r *Registry) Resolve(name string, arg any) (Predicate, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHook, name)
	}
	pred, err := f(arg)
	if err != nil {
		return nil, fmt.Errorf("hook %q: %w", name, err)
	}
	return pred, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// stringOrList normalizes a hook argument that accepts either a single
// string or a list of strings.
func stringOrList(arg any) ([]string, error) {
	switch v := arg.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string or list of strings, got %T in list", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings, got %T", arg)
	}
}
