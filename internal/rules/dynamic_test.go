package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/rules"
)

func dynamicRule(field string, op model.Operator, value model.Value) model.ValidationRule {
	return model.ValidationRule{
		ID:       "C001",
		Name:     "Regla dinámica",
		Severity: model.SeverityWarning,
		Condition: &model.RuleCondition{
			Field:    field,
			Operator: op,
			Value:    value,
		},
	}
}

func TestDynamicRule_Operators(t *testing.T) {
	fields := map[string]model.Value{
		"total_pagable": model.Number(119000),
		"supplier_name": model.String("Proveedor Andino SAS"),
		"cufe":          model.String("a1b2c3d4e5f6"),
		"line_count":    model.Number(2),
		"empty_field":   model.String("   "),
	}

	tests := []struct {
		name string
		rule model.ValidationRule
		want model.RuleStatus
	}{
		{"greater passes", dynamicRule("total_pagable", model.OpGreater, model.Number(100000)), model.StatusPassed},
		{"greater fails", dynamicRule("total_pagable", model.OpGreater, model.Number(200000)), model.StatusFailed},
		{"less passes", dynamicRule("line_count", model.OpLess, model.Number(10)), model.StatusPassed},
		{"gte boundary", dynamicRule("total_pagable", model.OpGreaterEqual, model.Number(119000)), model.StatusPassed},
		{"lte boundary", dynamicRule("total_pagable", model.OpLessEqual, model.Number(118999)), model.StatusFailed},
		{"numeric equality from string rule value", dynamicRule("total_pagable", model.OpEqual, model.String("119000")), model.StatusPassed},
		{"string equality fallback", dynamicRule("supplier_name", model.OpEqual, model.String("Proveedor Andino SAS")), model.StatusPassed},
		{"string inequality fallback", dynamicRule("supplier_name", model.OpNotEqual, model.String("Otro")), model.StatusPassed},
		{"contains case-insensitive", dynamicRule("supplier_name", model.OpContains, model.String("andino")), model.StatusPassed},
		{"contains missing substring", dynamicRule("supplier_name", model.OpContains, model.String("pacifico")), model.StatusFailed},
		{"exists non-empty", dynamicRule("cufe", model.OpExists, model.Null()), model.StatusPassed},
		{"exists whitespace only", dynamicRule("empty_field", model.OpExists, model.Null()), model.StatusFailed},
		{"relational on non-numeric fails", dynamicRule("supplier_name", model.OpGreater, model.Number(5)), model.StatusFailed},
		{"missing field skips", dynamicRule("no_such_field", model.OpExists, model.Null()), model.StatusSkipped},
	}

	engine := rules.NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Validate("FE1", nil, []model.ValidationRule{tt.rule}, fields)
			got := result.Results[len(result.Results)-1]
			assert.Equal(t, tt.want, got.Status, got.Message)
		})
	}
}

func TestDynamicRule_NoConditionSkips(t *testing.T) {
	rule := model.ValidationRule{
		ID:       "C002",
		Name:     "Sin condición",
		Severity: model.SeverityBlocking,
	}

	engine := rules.NewEngine()
	result := engine.Validate("FE1", nil, []model.ValidationRule{rule}, nil)

	got := result.Results[len(result.Results)-1]
	assert.Equal(t, model.StatusSkipped, got.Status)
	assert.True(t, result.CanSubmit)
}

func TestDynamicRule_BlockingFailureGatesSubmission(t *testing.T) {
	rule := model.ValidationRule{
		ID:       "C003",
		Name:     "Total mínimo",
		Severity: model.SeverityBlocking,
		Condition: &model.RuleCondition{
			Field:    "total_pagable",
			Operator: model.OpGreaterEqual,
			Value:    model.Number(1000000),
		},
	}
	fields := map[string]model.Value{"total_pagable": model.Number(119000)}

	engine := rules.NewEngine()
	result := engine.Validate("FE1", validDocument(), []model.ValidationRule{rule}, fields)

	assert.Equal(t, 1, result.BlockingFailures)
	assert.False(t, result.CanSubmit)
}

func TestDynamicRule_NullFieldSkips(t *testing.T) {
	fields := map[string]model.Value{"orden_compra": model.Null()}
	rule := dynamicRule("orden_compra", model.OpExists, model.Null())

	engine := rules.NewEngine()
	result := engine.Validate("FE1", nil, []model.ValidationRule{rule}, fields)

	got := result.Results[len(result.Results)-1]
	assert.Equal(t, model.StatusSkipped, got.Status)
}

func TestRules_ListingIncludesDynamic(t *testing.T) {
	engine := rules.NewEngine()
	dynamic := []model.ValidationRule{dynamicRule("cufe", model.OpExists, model.Null())}

	all := engine.Rules(dynamic)
	assert.Len(t, all, 6)
	assert.Equal(t, "R001", all[0].ID)
	assert.Equal(t, "C001", all[5].ID)
}
