// Package condition implements the shared predicate language used by
// feature flags and user segments.
//
// A Condition is a single attribute predicate (field operator value)
// evaluated against a record's attribute map. The package provides one
// pure evaluator and two combinators that the feature gate and the
// segment engine reuse with different policies:
//
//   - MatchAll: implicit AND across the list, short-circuiting on the
//     first failing condition. Used for flag targeting rules.
//   - MatchFold: left-to-right fold where each condition's Logic tag
//     (and/or) widens or narrows the accumulated result. Used for
//     segment membership rules.
//
// # Evaluation Semantics
//
// Evaluation is loose and total: it never panics and never returns an
// error. Scalars compare numerically whenever both sides coerce to
// numbers ("18" matches 18) and as strings otherwise. Malformed
// conditions degrade to permissive no-ops:
//
//   - a condition without a field is vacuously true
//   - between with anything but exactly two bounds is skipped
//   - unrecognized operators fail open (always true)
//
// Fail-open on unknown operators is intentional: an operator typo in a
// targeting rule must widen the audience, never silently exclude it.
// Stores are expected to validate operators at write time via
// IsKnownOperator so the permissive runtime path stays a last resort.
//
// # Usage
//
//	conds := []condition.Condition{
//		{Field: "role", Operator: condition.OpEquals, Value: "admin"},
//		{Field: "age", Operator: condition.OpGreaterEqual, Value: 18},
//	}
//	ok := condition.MatchAll(user.Attributes, conds)
//
// Fold semantics for segments:
//
//	conds := []condition.Condition{
//		{Field: "status", Operator: condition.OpEquals, Value: "active", Logic: condition.LogicAnd},
//		{Field: "plan", Operator: condition.OpEquals, Value: "pro", Logic: condition.LogicOr},
//	}
//	// folds to: (status = "active") OR (plan = "pro")
//	ok := condition.MatchFold(user.Attributes, conds)
package condition
