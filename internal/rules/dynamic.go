package rules

import (
	"fmt"
	"strings"

	"github.com/rezonia/dian-processor/internal/model"
)

// evaluateDynamic runs one caller-supplied rule against the flattened field
// map. A rule without a condition and a condition over an absent field both
// resolve to skipped, never to an error.
func evaluateDynamic(rule model.ValidationRule, fields map[string]model.Value) model.RuleResult {
	if rule.Condition == nil {
		return skipped(rule, "Regla sin condición definida")
	}

	fieldValue, ok := fields[rule.Condition.Field]
	if !ok || fieldValue.IsNull() {
		return skipped(rule, fmt.Sprintf("Campo '%s' no encontrado", rule.Condition.Field))
	}

	if compare(fieldValue, rule.Condition.Operator, rule.Condition.Value) {
		return model.RuleResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Status:   model.StatusPassed,
			Message: fmt.Sprintf("Condición cumplida: %s %s %s",
				rule.Condition.Field, rule.Condition.Operator, rule.Condition.Value.AsString()),
		}
	}

	return model.RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   model.StatusFailed,
		Message: fmt.Sprintf("Condición NO cumplida: %s %s %s",
			fieldValue.AsString(), rule.Condition.Operator, rule.Condition.Value.AsString()),
		Details: map[string]model.Value{
			"field":        model.String(rule.Condition.Field),
			"actual_value": fieldValue,
			"expected":     model.String(fmt.Sprintf("%s %s", rule.Condition.Operator, rule.Condition.Value.AsString())),
		},
	}
}

// compare applies a dynamic-rule operator. Relational operators require
// numeric coercion of both operands; equality operators fall back to string
// comparison when coercion fails.
func compare(fieldValue model.Value, op model.Operator, ruleValue model.Value) bool {
	switch op {
	case model.OpExists:
		return !fieldValue.IsEmpty()

	case model.OpContains:
		return strings.Contains(
			strings.ToLower(fieldValue.AsString()),
			strings.ToLower(ruleValue.AsString()),
		)

	case model.OpGreater, model.OpLess, model.OpGreaterEqual, model.OpLessEqual,
		model.OpEqual, model.OpNotEqual:
		left, leftOK := fieldValue.AsNumber()
		right, rightOK := ruleValue.AsNumber()
		if leftOK && rightOK {
			switch op {
			case model.OpGreater:
				return left > right
			case model.OpLess:
				return left < right
			case model.OpGreaterEqual:
				return left >= right
			case model.OpLessEqual:
				return left <= right
			case model.OpEqual:
				return left == right
			case model.OpNotEqual:
				return left != right
			}
		}
		// String fallback only for equality operators.
		switch op {
		case model.OpEqual:
			return fieldValue.AsString() == ruleValue.AsString()
		case model.OpNotEqual:
			return fieldValue.AsString() != ruleValue.AsString()
		}
		return false

	default:
		return false
	}
}
