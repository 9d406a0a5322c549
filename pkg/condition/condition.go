package condition

// Operator identifies a predicate applied to a record attribute.
type Operator string

// Supported operators.
const (
	OpEquals       Operator = "="
	OpNotEquals    Operator = "!="
	OpGreaterThan  Operator = ">"
	OpLessThan     Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpContains     Operator = "contains"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpBetween      Operator = "between"
	OpNull         Operator = "null"
	OpNotNull      Operator = "not_null"
)

// Logic determines how a condition composes with the predicate
// accumulated from the conditions before it. Only meaningful for
// fold-combined condition lists (see MatchFold).
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// Condition is a single attribute predicate: field operator value.
// It is a plain value type embedded in flags and segments, serialized
// as JSON in persistent stores.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
	Logic    Logic    `json:"logic,omitempty"`
}

// IsKnownOperator reports whether op is one of the supported operators.
// Evaluation itself fails open on unknown operators; this exists so
// stores can surface misconfiguration at write time instead.
func IsKnownOperator(op Operator) bool {
	switch op {
	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan,
		OpGreaterEqual, OpLessEqual, OpContains, OpStartsWith,
		OpEndsWith, OpIn, OpNotIn, OpBetween, OpNull, OpNotNull:
		return true
	}
	return false
}

// EffectiveLogic returns the condition's logic, defaulting to and.
func (c Condition) EffectiveLogic() Logic {
	if c.Logic == LogicOr {
		return LogicOr
	}
	return LogicAnd
}
