package condition

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Evaluate applies a single condition to a record's attributes.
// It is pure and never errors; malformed conditions resolve to
// permissive defaults instead:
//
//   - empty Field is vacuously true
//   - unknown operators are treated as always-true (fail-open)
//   - between with anything but exactly two bounds is skipped
//
// Comparison is loose: numeric strings compare as numbers, everything
// else falls back to string comparison.
func Evaluate(attrs map[string]any, c Condition) bool {
	if c.Field == "" {
		return true
	}

	val, present := attrs[c.Field]

	switch c.Operator {
	case OpNull:
		return !present || val == nil
	case OpNotNull:
		return present && val != nil
	case OpEquals:
		return looseEqual(val, c.Value)
	case OpNotEquals:
		return !looseEqual(val, c.Value)
	case OpGreaterThan:
		cmp, ok := compareOrdered(val, c.Value)
		return ok && cmp > 0
	case OpLessThan:
		cmp, ok := compareOrdered(val, c.Value)
		return ok && cmp < 0
	case OpGreaterEqual:
		cmp, ok := compareOrdered(val, c.Value)
		return ok && cmp >= 0
	case OpLessEqual:
		cmp, ok := compareOrdered(val, c.Value)
		return ok && cmp <= 0
	case OpContains:
		return present && strings.Contains(asString(val), asString(c.Value))
	case OpStartsWith:
		return present && strings.HasPrefix(asString(val), asString(c.Value))
	case OpEndsWith:
		return present && strings.HasSuffix(asString(val), asString(c.Value))
	case OpIn:
		return inList(val, c.Value)
	case OpNotIn:
		return !inList(val, c.Value)
	case OpBetween:
		bounds := asList(c.Value)
		if len(bounds) != 2 {
			return true
		}
		low, okL := compareOrdered(val, bounds[0])
		high, okH := compareOrdered(val, bounds[1])
		return okL && okH && low >= 0 && high <= 0
	default:
		// Fail-open on unrecognized operators. Stores reject unknown
		// operators at write time; anything that slips through must
		// not filter users out.
		return true
	}
}

// Applies reports whether a condition constrains anything at all.
// Skipped conditions (empty Field, unknown operator, between without
// exactly two bounds) evaluate permissively under Evaluate; combinators
// drop them from the fold so an or-tagged skipped condition cannot
// widen a match to the whole population.
func Applies(c Condition) bool {
	if c.Field == "" {
		return false
	}
	if !IsKnownOperator(c.Operator) {
		return false
	}
	if c.Operator == OpBetween && len(asList(c.Value)) != 2 {
		return false
	}
	return true
}

// MatchAll combines conditions with implicit AND, short-circuiting on
// the first failure. This is the flag combinator: a subject must
// satisfy every condition.
func MatchAll(attrs map[string]any, conds []Condition) bool {
	for _, c := range conds {
		if !Evaluate(attrs, c) {
			return false
		}
	}
	return true
}

// MatchFold combines conditions with a left-to-right fold over each
// condition's Logic. The accumulated result starts with the first
// condition; every subsequent or-tagged condition widens it
// (accumulated OR current) and every and-tagged condition narrows it
// (accumulated AND current).
//
// This is deliberately a fold, not precedence-aware boolean algebra:
// [a and, b or, c and] folds to ((a OR b) AND c). The segment query
// translation mirrors exactly this grouping. Conditions that do not
// apply (see Applies) are dropped from the fold entirely; a fold with
// nothing left to apply is vacuously true.
func MatchFold(attrs map[string]any, conds []Condition) bool {
	first := true
	result := true
	for _, c := range conds {
		if !Applies(c) {
			continue
		}
		if first {
			result = Evaluate(attrs, c)
			first = false
			continue
		}
		if c.EffectiveLogic() == LogicOr {
			result = result || Evaluate(attrs, c)
		} else {
			result = result && Evaluate(attrs, c)
		}
	}
	return result
}

func inList(val, operand any) bool {
	for _, item := range asList(operand) {
		if looseEqual(val, item) {
			return true
		}
	}
	return false
}

// looseEqual compares two scalars the way loosely-typed condition
// payloads expect: "18" equals 18, true equals "true" is not attempted
// beyond string identity, nil only equals nil.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, okA := asFloat(a); okA {
		if fb, okB := asFloat(b); okB {
			return fa == fb
		}
	}
	return asString(a) == asString(b)
}

// compareOrdered returns -1/0/1 for a against b. The comparison is
// numeric when both sides coerce to numbers and lexicographic
// otherwise. Reports false when either side is nil, matching the
// behavior of comparing against an absent attribute.
func compareOrdered(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}
	return strings.Compare(asString(a), asString(b)), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asList normalizes an operand into a slice of elements. Strings split
// on commas so operators like in accept both ["a","b"] and "a,b".
func asList(v any) []any {
	switch list := v.(type) {
	case nil:
		return nil
	case []any:
		return list
	case string:
		if list == "" {
			return nil
		}
		parts := strings.Split(list, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}
