// Package rules evaluates fiscal validation rules against a parsed invoice.
// The engine holds only read-only configuration (the static rule battery and
// the provider NIT registry) and is safe for concurrent use.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/dian-processor/internal/model"
)

// DefaultValidNITs is the provider master data registry (NITs registered in
// the ERP). Overridable per engine via WithValidNITs.
var DefaultValidNITs = []string{
	"830099847",
	"900123456",
	"800999888",
	"860001022",
	"900555444",
}

// expectedIVAPercent is the Colombian general IVA rate checked by R004.
var expectedIVAPercent = decimal.NewFromInt(19)

// StaticRules returns the fixed battery of five fiscal rules.
func StaticRules() []model.ValidationRule {
	return []model.ValidationRule{
		{
			ID:          "R001",
			Name:        "NIT Proveedor Válido",
			Description: "NIT del emisor debe existir en maestro de proveedores",
			Severity:    model.SeverityBlocking,
			Sources:     []string{"xml"},
		},
		{
			ID:          "R002",
			Name:        "CUFE Presente",
			Description: "La factura debe tener CUFE válido de la DIAN",
			Severity:    model.SeverityBlocking,
			Sources:     []string{"xml"},
		},
		{
			ID:          "R003",
			Name:        "Totales Consistentes",
			Description: "Subtotal + IVA - Retenciones debe ser igual al Total a Pagar",
			Severity:    model.SeverityWarning,
			Sources:     []string{"xml"},
		},
		{
			ID:          "R004",
			Name:        "IVA Correcto",
			Description: "El porcentaje de IVA debe ser 19%",
			Severity:    model.SeverityWarning,
			Sources:     []string{"xml"},
		},
		{
			ID:          "R005",
			Name:        "Referencia Orden de Compra",
			Description: "La factura debe tener referencia a una Orden de Compra",
			Severity:    model.SeverityWarning,
			Sources:     []string{"xml"},
		},
	}
}

// Engine evaluates the static rule battery plus caller-supplied dynamic
// rules. Construct with NewEngine.
type Engine struct {
	staticRules []model.ValidationRule
	validNITs   map[string]bool
	nitList     []string
	now         func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithValidNITs replaces the provider NIT registry.
func WithValidNITs(nits []string) EngineOption {
	return func(e *Engine) {
		e.nitList = append([]string(nil), nits...)
	}
}

// WithEngineClock overrides the result timestamp clock.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a rule engine with the static battery and the default
// NIT registry.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		staticRules: StaticRules(),
		nitList:     DefaultValidNITs,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.validNITs = make(map[string]bool, len(e.nitList))
	for _, nit := range e.nitList {
		e.validNITs[nit] = true
	}
	return e
}

// Rules returns the static rules followed by the given dynamic rules, for
// listing/display.
func (e *Engine) Rules(dynamic []model.ValidationRule) []model.ValidationRule {
	out := append([]model.ValidationRule(nil), e.staticRules...)
	return append(out, dynamic...)
}

// Validate runs every static rule against the typed document and every
// dynamic rule against the flattened field map. Rule evaluation never fails
// the call: missing data resolves to skipped results.
func (e *Engine) Validate(
	invoiceID string,
	doc *model.InvoiceDocument,
	dynamic []model.ValidationRule,
	fields map[string]model.Value,
) model.ValidationResult {
	results := []model.RuleResult{
		e.evaluateR001(doc),
		e.evaluateR002(doc),
		e.evaluateR003(doc),
		e.evaluateR004(doc),
		e.evaluateR005(doc),
	}

	for _, rule := range dynamic {
		results = append(results, evaluateDynamic(rule, fields))
	}

	result := model.ValidationResult{
		InvoiceID: invoiceID,
		Timestamp: e.now(),
		Results:   results,
	}
	for _, r := range results {
		switch {
		case r.Status == model.StatusPassed:
			result.Passed++
		case r.Status == model.StatusFailed && r.Severity == model.SeverityBlocking:
			result.BlockingFailures++
		case r.Status == model.StatusFailed && r.Severity == model.SeverityWarning:
			result.Warnings++
		}
	}
	result.CanSubmit = result.BlockingFailures == 0
	return result
}

func skipped(rule model.ValidationRule, message string) model.RuleResult {
	return model.RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   model.StatusSkipped,
		Message:  message,
	}
}

// R001: supplier NIT registered in the provider master.
func (e *Engine) evaluateR001(doc *model.InvoiceDocument) model.RuleResult {
	rule := e.staticRules[0]
	if doc == nil {
		return skipped(rule, "Sin datos XML para validar")
	}

	nit := doc.Supplier.CompanyID
	if e.validNITs[nit] {
		return model.RuleResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Status:   model.StatusPassed,
			Message:  fmt.Sprintf("NIT %s (%s) registrado en SAP", nit, doc.Supplier.RegistrationName),
			Details: map[string]model.Value{
				"nit":    model.String(nit),
				"nombre": model.String(doc.Supplier.RegistrationName),
			},
		}
	}

	registry := make([]model.Value, 0, len(e.nitList))
	for _, valid := range e.nitList {
		registry = append(registry, model.String(valid))
	}
	return model.RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   model.StatusFailed,
		Message:  fmt.Sprintf("NIT %s NO encontrado en maestro de proveedores SAP", nit),
		Details: map[string]model.Value{
			"nit":        model.String(nit),
			"valid_nits": model.Array(registry),
		},
	}
}

// R002: CUFE present and longer than 10 characters.
func (e *Engine) evaluateR002(doc *model.InvoiceDocument) model.RuleResult {
	rule := e.staticRules[1]
	if doc == nil {
		return skipped(rule, "Sin datos XML para validar")
	}

	cufe := doc.CUFE
	if len(cufe) > 10 {
		preview := cufe
		if len(preview) > 20 {
			preview = preview[:20]
		}
		return model.RuleResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Status:   model.StatusPassed,
			Message:  fmt.Sprintf("CUFE válido presente: %s...", preview),
			Details:  map[string]model.Value{"cufe": model.String(cufe)},
		}
	}
	return model.RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   model.StatusFailed,
		Message:  "CUFE no encontrado o inválido",
	}
}

// R003: subtotal + IVA - retenciones must equal the payable total within 1%
// of the payable amount.
func (e *Engine) evaluateR003(doc *model.InvoiceDocument) model.RuleResult {
	rule := e.staticRules[2]
	if doc == nil {
		return skipped(rule, "Sin datos XML para validar")
	}

	subtotal := doc.MonetaryTotal.LineExtensionAmount
	payable := doc.MonetaryTotal.PayableAmount
	iva := doc.TotalIVA
	retenciones := doc.TotalRetenciones

	calculated := subtotal.Add(iva).Sub(retenciones)
	difference := calculated.Sub(payable).Abs()
	tolerance := payable.Mul(decimal.NewFromFloat(0.01))

	details := map[string]model.Value{
		"subtotal":        decimalValue(subtotal),
		"iva":             decimalValue(iva),
		"retenciones":     decimalValue(retenciones),
		"total_calculado": decimalValue(calculated),
		"total_factura":   decimalValue(payable),
	}

	if difference.LessThanOrEqual(tolerance) {
		return model.RuleResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Status:   model.StatusPassed,
			Message: fmt.Sprintf("Totales consistentes: $%s + $%s - $%s = $%s",
				formatAmount(subtotal), formatAmount(iva), formatAmount(retenciones), formatAmount(payable)),
			Details: details,
		}
	}

	details["diferencia"] = decimalValue(difference)
	return model.RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   model.StatusFailed,
		Message: fmt.Sprintf("Totales inconsistentes: Calculado $%s vs Factura $%s",
			formatAmount(calculated), formatAmount(payable)),
		Details: details,
	}
}

// R004: the IVA percentage must be exactly 19. Skips when no IVA entry
// exists.
func (e *Engine) evaluateR004(doc *model.InvoiceDocument) model.RuleResult {
	rule := e.staticRules[3]
	if doc == nil || len(doc.Taxes) == 0 {
		return skipped(rule, "Sin información de impuestos en XML")
	}

	iva := doc.IVATax()
	if iva == nil {
		return skipped(rule, "No se encontró IVA en el XML")
	}

	if iva.TaxPercentage.Equal(expectedIVAPercent) {
		return model.RuleResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Status:   model.StatusPassed,
			Message:  fmt.Sprintf("IVA correcto: %s%% ($%s)", iva.TaxPercentage.String(), formatAmount(iva.TaxAmount)),
			Details: map[string]model.Value{
				"iva_percent": decimalValue(iva.TaxPercentage),
				"iva_amount":  decimalValue(iva.TaxAmount),
			},
		}
	}
	return model.RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   model.StatusFailed,
		Message:  fmt.Sprintf("IVA es %s%% (esperado: 19%%)", iva.TaxPercentage.String()),
		Details: map[string]model.Value{
			"iva_percent": decimalValue(iva.TaxPercentage),
			"expected":    model.Number(19.0),
		},
	}
}

// R005: an order reference with a non-empty PO number must be present.
func (e *Engine) evaluateR005(doc *model.InvoiceDocument) model.RuleResult {
	rule := e.staticRules[4]
	if doc == nil {
		return skipped(rule, "Sin datos XML para validar")
	}

	if doc.OrderReference != nil && doc.OrderReference.OrderID != "" {
		return model.RuleResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Status:   model.StatusPassed,
			Message:  fmt.Sprintf("Orden de Compra referenciada: %s", doc.OrderReference.OrderID),
			Details: map[string]model.Value{
				"orden_compra": model.String(doc.OrderReference.OrderID),
			},
		}
	}
	return model.RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   model.StatusFailed,
		Message:  "No se encontró referencia a Orden de Compra",
	}
}

func decimalValue(d decimal.Decimal) model.Value {
	f, _ := d.Float64()
	return model.Number(f)
}

// formatAmount renders a decimal with thousands commas and no cents, matching
// the display style of the rule messages.
func formatAmount(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
