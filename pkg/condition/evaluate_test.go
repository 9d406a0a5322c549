package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/gatekit/pkg/condition"
)

func TestEvaluateComparisons(t *testing.T) {
	t.Parallel()

	attrs := map[string]any{
		"role":    "admin",
		"age":     21,
		"plan":    "pro",
		"country": "DE",
		"email":   "jane@example.com",
		"credits": "150",
		"deleted": nil,
	}

	t.Run("Equals", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "role", Operator: condition.OpEquals, Value: "admin"}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "role", Operator: condition.OpEquals, Value: "member"}))
	})

	t.Run("EqualsLooseNumeric", func(t *testing.T) {
		t.Parallel()
		// Numeric strings compare as numbers in both directions.
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpEquals, Value: "21"}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "credits", Operator: condition.OpEquals, Value: 150}))
	})

	t.Run("NotEquals", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "plan", Operator: condition.OpNotEquals, Value: "free"}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "plan", Operator: condition.OpNotEquals, Value: "pro"}))
	})

	t.Run("Ordered", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpGreaterThan, Value: 18}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpGreaterThan, Value: 21}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpGreaterEqual, Value: 21}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpLessThan, Value: "30"}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpLessEqual, Value: 21}))
	})

	t.Run("OrderedLexicographic", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "country", Operator: condition.OpLessThan, Value: "FR"}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "country", Operator: condition.OpGreaterThan, Value: "FR"}))
	})

	t.Run("OrderedAgainstMissingField", func(t *testing.T) {
		t.Parallel()
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "score", Operator: condition.OpGreaterThan, Value: 1}))
	})

	t.Run("StringOperators", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "email", Operator: condition.OpContains, Value: "@example"}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "email", Operator: condition.OpStartsWith, Value: "jane"}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "email", Operator: condition.OpEndsWith, Value: ".com"}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "email", Operator: condition.OpContains, Value: "gmail"}))
	})

	t.Run("In", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "country", Operator: condition.OpIn, Value: []any{"DE", "AT", "CH"}}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "country", Operator: condition.OpIn, Value: "DE, AT, CH"}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "country", Operator: condition.OpIn, Value: "US,UK"}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "country", Operator: condition.OpNotIn, Value: "US,UK"}))
	})

	t.Run("Between", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpBetween, Value: []any{18, 30}}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpBetween, Value: []any{21, 21}}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpBetween, Value: []any{22, 30}}))
	})

	t.Run("BetweenWrongArityIsSkipped", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpBetween, Value: []any{18}}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "age", Operator: condition.OpBetween, Value: []any{1, 2, 3}}))
	})

	t.Run("NullChecks", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "deleted", Operator: condition.OpNull}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "missing", Operator: condition.OpNull}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "role", Operator: condition.OpNull}))
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "role", Operator: condition.OpNotNull}))
		assert.False(t, condition.Evaluate(attrs, condition.Condition{Field: "deleted", Operator: condition.OpNotNull}))
	})

	t.Run("EmptyFieldIsVacuouslyTrue", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Operator: condition.OpEquals, Value: "anything"}))
	})

	t.Run("UnknownOperatorFailsOpen", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.Evaluate(attrs, condition.Condition{Field: "role", Operator: "matches_regex", Value: ".*"}))
	})
}

func TestMatchAll(t *testing.T) {
	t.Parallel()

	conds := []condition.Condition{
		{Field: "role", Operator: condition.OpEquals, Value: "admin"},
		{Field: "age", Operator: condition.OpGreaterEqual, Value: 18},
	}

	t.Run("AllPass", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.MatchAll(map[string]any{"role": "admin", "age": 21}, conds))
	})

	t.Run("OneFails", func(t *testing.T) {
		t.Parallel()
		assert.False(t, condition.MatchAll(map[string]any{"role": "admin", "age": 17}, conds))
	})

	t.Run("EmptyListMatchesEveryone", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.MatchAll(map[string]any{}, nil))
	})
}

func TestMatchFold(t *testing.T) {
	t.Parallel()

	t.Run("OrWidens", func(t *testing.T) {
		t.Parallel()
		// (status = "active") OR (plan = "pro")
		conds := []condition.Condition{
			{Field: "status", Operator: condition.OpEquals, Value: "active", Logic: condition.LogicAnd},
			{Field: "plan", Operator: condition.OpEquals, Value: "pro", Logic: condition.LogicOr},
		}

		assert.True(t, condition.MatchFold(map[string]any{"status": "active", "plan": "free"}, conds))
		assert.True(t, condition.MatchFold(map[string]any{"status": "suspended", "plan": "pro"}, conds))
		assert.False(t, condition.MatchFold(map[string]any{"status": "suspended", "plan": "free"}, conds))
	})

	t.Run("FoldIsLeftToRight", func(t *testing.T) {
		t.Parallel()
		// ((a OR b) AND c), not (a OR (b AND c)).
		conds := []condition.Condition{
			{Field: "a", Operator: condition.OpEquals, Value: 1},
			{Field: "b", Operator: condition.OpEquals, Value: 1, Logic: condition.LogicOr},
			{Field: "c", Operator: condition.OpEquals, Value: 1, Logic: condition.LogicAnd},
		}

		assert.False(t, condition.MatchFold(map[string]any{"a": 1, "b": 0, "c": 0}, conds))
		assert.True(t, condition.MatchFold(map[string]any{"a": 0, "b": 1, "c": 1}, conds))
		assert.True(t, condition.MatchFold(map[string]any{"a": 1, "b": 0, "c": 1}, conds))
	})

	t.Run("MissingLogicDefaultsToAnd", func(t *testing.T) {
		t.Parallel()
		conds := []condition.Condition{
			{Field: "a", Operator: condition.OpEquals, Value: 1},
			{Field: "b", Operator: condition.OpEquals, Value: 1},
		}
		assert.False(t, condition.MatchFold(map[string]any{"a": 1, "b": 0}, conds))
	})

	t.Run("EmptyListMatchesEveryone", func(t *testing.T) {
		t.Parallel()
		assert.True(t, condition.MatchFold(map[string]any{"a": 1}, nil))
	})

	t.Run("SkippedOrConditionDoesNotWiden", func(t *testing.T) {
		t.Parallel()
		// A malformed between carrying or must not turn the fold into
		// a match-everything filter.
		conds := []condition.Condition{
			{Field: "status", Operator: condition.OpEquals, Value: "active", Logic: condition.LogicAnd},
			{Field: "age", Operator: condition.OpBetween, Value: []any{18}, Logic: condition.LogicOr},
		}

		assert.False(t, condition.MatchFold(map[string]any{"status": "churned"}, conds))
		assert.True(t, condition.MatchFold(map[string]any{"status": "active"}, conds))
	})

	t.Run("SkippedLeadingConditionDropsOut", func(t *testing.T) {
		t.Parallel()
		conds := []condition.Condition{
			{Field: "", Operator: condition.OpEquals, Value: "x"},
			{Field: "plan", Operator: condition.OpEquals, Value: "pro", Logic: condition.LogicOr},
		}

		assert.True(t, condition.MatchFold(map[string]any{"plan": "pro"}, conds))
		assert.False(t, condition.MatchFold(map[string]any{"plan": "free"}, conds))
	})

	t.Run("AllSkippedIsVacuouslyTrue", func(t *testing.T) {
		t.Parallel()
		conds := []condition.Condition{
			{Field: "x", Operator: "matches_regex", Value: "a.*"},
			{Field: "age", Operator: condition.OpBetween, Value: []any{1, 2, 3}, Logic: condition.LogicOr},
		}
		assert.True(t, condition.MatchFold(map[string]any{}, conds))
	})
}

func TestApplies(t *testing.T) {
	t.Parallel()

	assert.True(t, condition.Applies(condition.Condition{Field: "plan", Operator: condition.OpEquals, Value: "pro"}))
	assert.True(t, condition.Applies(condition.Condition{Field: "age", Operator: condition.OpBetween, Value: []any{18, 30}}))
	assert.False(t, condition.Applies(condition.Condition{Field: "", Operator: condition.OpEquals, Value: "pro"}))
	assert.False(t, condition.Applies(condition.Condition{Field: "x", Operator: "matches_regex", Value: "a"}))
	assert.False(t, condition.Applies(condition.Condition{Field: "age", Operator: condition.OpBetween, Value: []any{18}}))
}

func TestIsKnownOperator(t *testing.T) {
	t.Parallel()

	assert.True(t, condition.IsKnownOperator(condition.OpBetween))
	assert.True(t, condition.IsKnownOperator(condition.OpNotNull))
	assert.False(t, condition.IsKnownOperator("matches_regex"))
	assert.False(t, condition.IsKnownOperator(""))
}
