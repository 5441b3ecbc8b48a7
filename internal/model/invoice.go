package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceType classifies an attachment reference found in the document.
type ReferenceType string

const (
	ReferenceOrdenCompra     ReferenceType = "orden_compra"
	ReferenceContrato        ReferenceType = "contrato"
	ReferenceArchivoAdjunto  ReferenceType = "archivo_adjunto"
	ReferenceDocumento       ReferenceType = "documento"
)

// TaxSchemeIVA is the DIAN scheme ID for IVA output tax.
const TaxSchemeIVA = "01"

// taxSchemeNames maps DIAN 2-character tax scheme IDs to their names.
// This registry is a join key with external systems and must stay bit-exact.
var taxSchemeNames = map[string]string{
	"01": "IVA",
	"04": "INC",
	"05": "ReteIVA",
	"06": "ReteRenta",
	"07": "ReteICA",
}

// TaxSchemeName resolves a DIAN tax scheme ID to its human name.
// Unknown schemes resolve to "Otros".
func TaxSchemeName(schemeID string) string {
	if name, ok := taxSchemeNames[schemeID]; ok {
		return name
	}
	return "Otros"
}

// PartyInfo holds supplier or customer identification from the invoice.
type PartyInfo struct {
	CompanyID                 string `json:"company_id"`
	RegistrationName          string `json:"registration_name"`
	TaxLevelCode              string `json:"tax_level_code,omitempty"`
	TaxSchemeID               string `json:"tax_scheme_id,omitempty"`
	AddressLine               string `json:"address_line,omitempty"`
	CityName                  string `json:"city_name,omitempty"`
	Department                string `json:"department,omitempty"`
	CountryCode               string `json:"country_code,omitempty"`
	Email                     string `json:"email,omitempty"`
	Phone                     string `json:"phone,omitempty"`
	SupplierAssignedAccountID string `json:"supplier_assigned_account_id,omitempty"`
}

// TaxDetail is one tax or withholding subtotal (IVA, ReteIVA, ReteRenta, ReteICA).
type TaxDetail struct {
	TaxSchemeID   string          `json:"tax_scheme_id"`
	TaxName       string          `json:"tax_name"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
}

// InvoiceLine is one product/service line.
type InvoiceLine struct {
	LineID              string           `json:"line_id"`
	Description         string           `json:"description"`
	Quantity            decimal.Decimal  `json:"quantity"`
	UnitCode            string           `json:"unit_code"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	LineExtensionAmount decimal.Decimal  `json:"line_extension_amount"`
	ProductCode         string           `json:"product_code,omitempty"`
	TaxAmount           *decimal.Decimal `json:"tax_amount,omitempty"`
}

// OrderReference is the purchase order referenced by the invoice.
type OrderReference struct {
	OrderID      string `json:"order_id"`
	SalesOrderID string `json:"sales_order_id,omitempty"`
}

// AttachmentReference is a document or file referenced by the invoice or its
// envelope. FoundInArchive and MatchedFilename are the only fields mutated
// after parsing: the archive layer fills them in when a matching file exists.
type AttachmentReference struct {
	ReferenceID     string        `json:"reference_id"`
	ReferenceType   ReferenceType `json:"reference_type"`
	Description     string        `json:"description,omitempty"`
	FoundInArchive  bool          `json:"found_in_zip"`
	MatchedFilename string        `json:"matched_filename,omitempty"`
}

// PaymentMeans is one declared payment method.
type PaymentMeans struct {
	ID      string     `json:"payment_means_id"`
	Code    string     `json:"payment_means_code"`
	DueDate *time.Time `json:"payment_due_date,omitempty"`
}

// InvoicePeriod is the billing period, when declared.
type InvoicePeriod struct {
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `json:"description,omitempty"`
}

// MonetaryTotal is the LegalMonetaryTotal block. A missing block parses to
// the zero value rather than failing.
type MonetaryTotal struct {
	LineExtensionAmount  decimal.Decimal `json:"line_extension_amount"`
	TaxExclusiveAmount   decimal.Decimal `json:"tax_exclusive_amount"`
	TaxInclusiveAmount   decimal.Decimal `json:"tax_inclusive_amount"`
	AllowanceTotalAmount decimal.Decimal `json:"allowance_total_amount"`
	ChargeTotalAmount    decimal.Decimal `json:"charge_total_amount"`
	PayableAmount        decimal.Decimal `json:"payable_amount"`
}

// InvoiceDocument is the canonical parsed DIAN electronic invoice (UBL 2.1).
// It is constructed once per parse and not modified afterwards, except for the
// archive-matching fields on AttachmentReference.
type InvoiceDocument struct {
	InvoiceNumber   string     `json:"invoice_number"`
	CUFE            string     `json:"cufe"`
	IssueDate       time.Time  `json:"issue_date"`
	IssueTime       string     `json:"issue_time,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CurrencyCode    string     `json:"currency_code"`
	InvoiceTypeCode string     `json:"invoice_type_code"`

	Notes  []string `json:"notes,omitempty"`
	QRCode string   `json:"qr_code,omitempty"`

	Supplier PartyInfo `json:"supplier"`
	Customer PartyInfo `json:"customer"`

	PaymentMeans  []PaymentMeans `json:"payment_means,omitempty"`
	InvoicePeriod *InvoicePeriod `json:"invoice_period,omitempty"`

	Taxes            []TaxDetail `json:"taxes,omitempty"`
	WithholdingTaxes []TaxDetail `json:"withholding_taxes,omitempty"`

	MonetaryTotal MonetaryTotal   `json:"monetary_total"`
	TotalDiscount decimal.Decimal `json:"total_descuentos"`
	TotalCharges  decimal.Decimal `json:"total_cargos"`
	PrepaidAmount decimal.Decimal `json:"prepago"`

	Lines     []InvoiceLine `json:"items,omitempty"`
	LineCount int           `json:"line_count"`

	OrderReference       *OrderReference       `json:"order_reference,omitempty"`
	AttachmentReferences []AttachmentReference `json:"attachment_references,omitempty"`

	// Derived totals, filled by ComputeDerivedTotals.
	TotalIVA         decimal.Decimal `json:"total_iva"`
	TotalRetenciones decimal.Decimal `json:"total_retenciones"`
}

// ComputeDerivedTotals recalculates TotalIVA (sum of output taxes with scheme
// 01) and TotalRetenciones (sum of all withholding taxes).
func (d *InvoiceDocument) ComputeDerivedTotals() {
	iva := decimal.Zero
	for _, t := range d.Taxes {
		if t.TaxSchemeID == TaxSchemeIVA {
			iva = iva.Add(t.TaxAmount)
		}
	}

	ret := decimal.Zero
	for _, t := range d.WithholdingTaxes {
		ret = ret.Add(t.TaxAmount)
	}

	d.TotalIVA = iva
	d.TotalRetenciones = ret
}

// IVATax returns the first output tax with scheme 01, or nil.
func (d *InvoiceDocument) IVATax() *TaxDetail {
	for i := range d.Taxes {
		if d.Taxes[i].TaxSchemeID == TaxSchemeIVA {
			return &d.Taxes[i]
		}
	}
	return nil
}
