package model

import "time"

// RuleSeverity classifies a rule's failure impact.
type RuleSeverity string

const (
	SeverityBlocking RuleSeverity = "blocking"
	SeverityWarning  RuleSeverity = "warning"
)

// RuleStatus is the verdict of one rule evaluation.
type RuleStatus string

const (
	StatusPassed  RuleStatus = "passed"
	StatusFailed  RuleStatus = "failed"
	StatusSkipped RuleStatus = "skipped"
)

// Operator is a dynamic-rule comparison operator.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpContains     Operator = "contains"
	OpExists       Operator = "exists"
)

// RuleCondition is a single dynamic-rule condition evaluated against the
// flattened field map. JSON tags match the external rule definitions.
type RuleCondition struct {
	Field    string   `json:"campo"`
	Operator Operator `json:"operador"`
	Value    Value    `json:"valor"`
}

// ValidationRule is one fiscal rule: either a static rule with hand-written
// evaluation (Condition nil) or a dynamic rule with a single condition.
type ValidationRule struct {
	ID          string         `json:"id"`
	Name        string         `json:"nombre"`
	Description string         `json:"descripcion"`
	Severity    RuleSeverity   `json:"tipo"`
	Sources     []string       `json:"fuentes,omitempty"`
	Condition   *RuleCondition `json:"condicion,omitempty"`
}

// RuleResult is the outcome of evaluating one rule.
type RuleResult struct {
	RuleID      string           `json:"rule_id"`
	RuleName    string           `json:"rule_name"`
	Severity    RuleSeverity     `json:"severity"`
	Status      RuleStatus       `json:"status"`
	Message     string           `json:"message"`
	Details     map[string]Value `json:"details,omitempty"`
}

// ValidationResult aggregates all rule outcomes for one invoice.
// CanSubmit is true iff no blocking rule failed.
type ValidationResult struct {
	InvoiceID        string       `json:"invoice_id"`
	Timestamp        time.Time    `json:"timestamp"`
	Results          []RuleResult `json:"results"`
	Passed           int          `json:"passed"`
	Warnings         int          `json:"warnings"`
	BlockingFailures int          `json:"blocking_failures"`
	CanSubmit        bool         `json:"can_submit"`
}
