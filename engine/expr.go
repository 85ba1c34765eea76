package engine

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cozelabs/agentgraph/types"
)

// Condition and router expressions are a deliberately small language over
// state references:
//
//	state["key"] != null
//	state["key"] == "literal"
//	state["key"] contains "substring"
//	state["key"]            (bare reference, truthiness)
//	!state["key"]
//
// References may also be written state.key or as a bare identifier. Literals
// are double-quoted strings, numbers, true, false, or null. Anything the
// evaluator cannot parse is a routing error, never a silent false.

// EvalBool evaluates a boolean expression against the state.
func EvalBool(expr string, st *State) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, routingErr(expr, "empty expression")
	}

	if rest, ok := strings.CutPrefix(expr, "!"); ok {
		inner, err := EvalBool(rest, st)
		if err != nil {
			return false, err
		}
		return !inner, nil
	}

	if left, right, ok := splitOperator(expr, "=="); ok {
		return compareEqual(left, right, st, expr)
	}
	if left, right, ok := splitOperator(expr, "!="); ok {
		equal, err := compareEqual(left, right, st, expr)
		if err != nil {
			return false, err
		}
		return !equal, nil
	}
	if left, right, ok := splitOperator(expr, " contains "); ok {
		haystack, err := resolveRef(left, st, expr)
		if err != nil {
			return false, err
		}
		needle, err := parseLiteral(right, expr)
		if err != nil {
			return false, err
		}
		needleStr, ok := needle.(string)
		if !ok {
			return false, routingErr(expr, "contains requires a string literal")
		}
		return containsValue(haystack, needleStr), nil
	}

	// Bare reference: non-empty, non-zero, non-nil is true.
	value, err := resolveRef(expr, st, expr)
	if err != nil {
		return false, err
	}
	return truthy(value), nil
}

// EvalValue evaluates an expression for its value. A bare state reference
// yields the referenced value; comparison expressions yield their boolean.
func EvalValue(expr string, st *State) (any, error) {
	expr = strings.TrimSpace(expr)
	if key, ok := refKey(expr); ok {
		v, _ := st.Lookup(key)
		return v, nil
	}
	return EvalBool(expr, st)
}

func compareEqual(left, right string, st *State, expr string) (bool, error) {
	value, err := resolveRef(left, st, expr)
	if err != nil {
		return false, err
	}
	literal, err := parseLiteral(right, expr)
	if err != nil {
		return false, err
	}
	if literal == nil {
		return value == nil || isEmpty(value), nil
	}
	switch lit := literal.(type) {
	case string:
		s, ok := value.(string)
		return ok && s == lit, nil
	case float64:
		n, ok := asFloat(value)
		return ok && n == lit, nil
	case bool:
		b, ok := value.(bool)
		return ok && b == lit, nil
	}
	return false, routingErr(expr, "unsupported literal")
}

// splitOperator splits on the first top-level occurrence of op outside
// quotes and brackets.
func splitOperator(expr, op string) (left, right string, ok bool) {
	inQuote := false
	depth := 0
	for i := 0; i+len(op) <= len(expr); i++ {
		switch expr[i] {
		case '"':
			inQuote = !inQuote
		case '[':
			depth++
		case ']':
			depth--
		}
		if !inQuote && depth == 0 && strings.HasPrefix(expr[i:], op) {
			return strings.TrimSpace(expr[:i]), strings.TrimSpace(expr[i+len(op):]), true
		}
	}
	return "", "", false
}

// refKey extracts the state key from a reference form, if expr is one.
func refKey(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if rest, ok := strings.CutPrefix(expr, "state["); ok {
		inner, ok := strings.CutSuffix(rest, "]")
		if !ok {
			return "", false
		}
		inner = strings.TrimSpace(inner)
		if len(inner) >= 2 && inner[0] == '"' && inner[len(inner)-1] == '"' {
			return inner[1 : len(inner)-1], true
		}
		return "", false
	}
	if rest, ok := strings.CutPrefix(expr, "state."); ok {
		if isIdentifier(rest) {
			return rest, true
		}
		return "", false
	}
	if isIdentifier(expr) && expr != "true" && expr != "false" && expr != "null" {
		return expr, true
	}
	return "", false
}

func resolveRef(ref string, st *State, expr string) (any, error) {
	key, ok := refKey(ref)
	if !ok {
		return nil, routingErr(expr, fmt.Sprintf("invalid state reference %q", ref))
	}
	v, _ := st.Lookup(key)
	return v, nil
}

func parseLiteral(raw, expr string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "null" || raw == "nil":
		return nil, nil
	case raw == "true":
		return true, nil
	case raw == "false":
		return false, nil
	case len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"':
		return raw[1 : len(raw)-1], nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n, nil
	}
	return nil, routingErr(expr, fmt.Sprintf("invalid literal %q", raw))
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return !isEmpty(v)
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func containsValue(haystack any, needle string) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, needle)
	case []any:
		for _, item := range h {
			if s, ok := item.(string); ok && s == needle {
				return true
			}
		}
	case []string:
		for _, s := range h {
			if s == needle {
				return true
			}
		}
	}
	return false
}

func routingErr(expr, reason string) error {
	return types.NewError(types.ErrRouting, fmt.Sprintf("cannot evaluate %q: %s", expr, reason))
}
