// Package reconcile compares fields parsed from the invoice XML against
// fields independently extracted (via OCR) from the purchase-order document.
package reconcile

import "github.com/rezonia/dian-processor/internal/model"

// DefaultTolerance is the relative tolerance for numeric comparisons.
const DefaultTolerance = 0.05

// FieldMapping binds one XML-derived value to the OCR field it is verified
// against. The OCR field names are a bit-exact contract with the extraction
// schema.
type FieldMapping struct {
	XMLField  string
	OCField   string
	Label     string
	Kind      model.CompareKind
	Tolerance float64
}

// DefaultMappings returns the fixed six-entry comparison table, in evaluation
// order.
func DefaultMappings() []FieldMapping {
	return []FieldMapping{
		{
			XMLField: "order_reference",
			OCField:  "PurchaseNumber",
			Label:    "Número Orden de Compra",
			Kind:     model.CompareExact,
		},
		{
			XMLField: "supplier_nit",
			OCField:  "ProviderNit",
			Label:    "NIT Proveedor",
			Kind:     model.CompareExact,
		},
		{
			XMLField: "supplier_name",
			OCField:  "ProviderName",
			Label:    "Nombre Proveedor",
			Kind:     model.CompareContains,
		},
		{
			XMLField:  "total_payable",
			OCField:   "InvoiceTotal",
			Label:     "Total a Pagar",
			Kind:      model.CompareNumeric,
			Tolerance: DefaultTolerance,
		},
		{
			XMLField:  "line_extension_amount",
			OCField:   "TotalBruto",
			Label:     "Subtotal (Base Gravable)",
			Kind:      model.CompareNumeric,
			Tolerance: DefaultTolerance,
		},
		{
			XMLField:  "total_iva",
			OCField:   "TotalIva",
			Label:     "Total IVA",
			Kind:      model.CompareNumeric,
			Tolerance: DefaultTolerance,
		},
	}
}
