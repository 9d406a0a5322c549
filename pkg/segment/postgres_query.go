package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/gatekit/pkg/condition"
)

// numericPattern guards ::numeric casts: rows whose attribute is not a
// number simply fail the comparison instead of aborting the query.
const numericPattern = `^-?[0-9]+(\.[0-9]+)?$`

// filterBuilder accumulates positional arguments while the condition
// fold is translated into a SQL boolean expression.
type filterBuilder struct {
	args []any
}

func (b *filterBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// buildConditionFilter folds conditions into a WHERE expression over a
// jsonb attributes column, grouped exactly like condition.MatchFold:
// left-to-right, or-tagged conditions widening the accumulated filter
// and and-tagged ones narrowing it. Conditions that do not apply are
// dropped from the fold, again like MatchFold, so an or-tagged
// malformed condition never widens the filter to every row. Returns
// "TRUE" for an empty or fully skipped list so callers can always
// interpolate the result.
func buildConditionFilter(conds []condition.Condition) (string, []any) {
	b := &filterBuilder{}

	expr := ""
	for _, c := range conds {
		if !condition.Applies(c) {
			continue
		}
		clause := b.clause(c)
		if expr == "" {
			expr = clause
			continue
		}
		if c.EffectiveLogic() == condition.LogicOr {
			expr = "(" + expr + ") OR (" + clause + ")"
		} else {
			expr = "(" + expr + ") AND (" + clause + ")"
		}
	}

	if expr == "" {
		expr = "TRUE"
	}
	return expr, b.args
}

// clause translates one condition. Malformed conditions degrade to
// TRUE, matching the in-memory evaluator's permissive defaults.
func (b *filterBuilder) clause(c condition.Condition) string {
	if c.Field == "" || !condition.IsKnownOperator(c.Operator) {
		return "TRUE"
	}

	attr := func() string { return "attributes->>" + b.bind(c.Field) }

	switch c.Operator {
	case condition.OpNull:
		return attr() + " IS NULL"
	case condition.OpNotNull:
		return attr() + " IS NOT NULL"
	case condition.OpEquals:
		return b.comparison(c, "=")
	case condition.OpNotEquals:
		a := attr()
		return "(" + a + " IS NULL OR NOT (" + b.comparisonExpr(a, c.Value, "=") + "))"
	case condition.OpGreaterThan:
		return b.comparison(c, ">")
	case condition.OpLessThan:
		return b.comparison(c, "<")
	case condition.OpGreaterEqual:
		return b.comparison(c, ">=")
	case condition.OpLessEqual:
		return b.comparison(c, "<=")
	case condition.OpContains:
		return attr() + " LIKE '%' || " + b.bind(escapeLike(stringify(c.Value))) + " || '%' ESCAPE '\\'"
	case condition.OpStartsWith:
		return attr() + " LIKE " + b.bind(escapeLike(stringify(c.Value))) + " || '%' ESCAPE '\\'"
	case condition.OpEndsWith:
		return attr() + " LIKE '%' || " + b.bind(escapeLike(stringify(c.Value))) + " ESCAPE '\\'"
	case condition.OpIn:
		return attr() + " = ANY(" + b.bind(stringifyList(c.Value)) + ")"
	case condition.OpNotIn:
		a := attr()
		return "(" + a + " IS NULL OR " + a + " <> ALL(" + b.bind(stringifyList(c.Value)) + "))"
	case condition.OpBetween:
		bounds := listOperand(c.Value)
		if len(bounds) != 2 {
			return "TRUE"
		}
		low := b.comparisonExpr(attr(), bounds[0], ">=")
		high := b.comparisonExpr(attr(), bounds[1], "<=")
		return "(" + low + ") AND (" + high + ")"
	default:
		return "TRUE"
	}
}

// comparison emits an attribute comparison, numeric when the operand
// is a number and textual otherwise, mirroring the loose in-memory
// comparison rules.
func (b *filterBuilder) comparison(c condition.Condition, op string) string {
	attr := "attributes->>" + b.bind(c.Field)
	return b.comparisonExpr(attr, c.Value, op)
}

func (b *filterBuilder) comparisonExpr(attr string, operand any, op string) string {
	if f, ok := numericOperand(operand); ok {
		return fmt.Sprintf("%s ~ '%s' AND (%s)::numeric %s %s",
			attr, numericPattern, attr, op, b.bind(f))
	}
	return attr + " " + op + " " + b.bind(stringify(operand))
}

// likeEscaper neutralizes LIKE metacharacters in operands so a literal
// "%" or "_" matches itself, as strings.Contains does in memory.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func numericOperand(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
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

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// stringifyList normalizes an in/not_in operand into a text array.
func stringifyList(v any) []string {
	items := listOperand(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringify(item))
	}
	return out
}

// listOperand mirrors the in-memory evaluator's operand handling:
// slices pass through, strings split on commas.
func listOperand(v any) []any {
	switch list := v.(type) {
	case nil:
		return nil
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
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
	default:
		return []any{v}
	}
}
