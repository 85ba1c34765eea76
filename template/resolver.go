// Package template substitutes {{identifier}} placeholders against workflow
// execution state. Resolution is a single pass: substituted values are never
// rescanned, so templated state can safely contain placeholder-like text.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cozelabs/agentgraph/types"
)

var placeholderRE = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Lookup resolves a top-level state key. The engine's execution state
// implements this interface.
type Lookup interface {
	Lookup(key string) (any, bool)
}

// MapLookup adapts a plain map to the Lookup interface.
type MapLookup map[string]any

// Lookup implements Lookup.
func (m MapLookup) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Resolver substitutes placeholders against execution state.
type Resolver struct {
	strict bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// Strict makes resolution fail on unknown identifiers instead of
// substituting an empty string.
func Strict(strict bool) Option {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// NewResolver creates a resolver. The default policy is lenient: unknown
// identifiers resolve to "".
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve substitutes every {{identifier}} token in text with the string form
// of the corresponding top-level state value. Non-placeholder text passes
// through unchanged. In strict mode an unknown identifier is an error.
func (r *Resolver) Resolve(text string, state Lookup) (string, error) {
	var missing string
	resolved := placeholderRE.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderRE.FindStringSubmatch(match)[1]
		v, ok := state.Lookup(key)
		if !ok {
			if missing == "" {
				missing = key
			}
			return ""
		}
		return Stringify(v)
	})
	if r.strict && missing != "" {
		return "", types.NewError(types.ErrValidation, fmt.Sprintf("unknown template variable %q", missing))
	}
	return resolved, nil
}

// ResolveValue resolves placeholders inside an arbitrary config value:
// strings are resolved directly, maps and slices recursively; other values
// pass through untouched.
func (r *Resolver) ResolveValue(value any, state Lookup) (any, error) {
	switch v := value.(type) {
	case string:
		return r.Resolve(v, state)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			resolved, err := r.ResolveValue(item, state)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := r.ResolveValue(item, state)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

// ResolveArgs resolves every value in a tool argument map.
func (r *Resolver) ResolveArgs(args map[string]any, state Lookup) (map[string]any, error) {
	resolved, err := r.ResolveValue(args, state)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return map[string]any{}, nil
	}
	return resolved.(map[string]any), nil
}

// Stringify converts a state value to its template string form.
// Strings pass through; composite values render as compact JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
