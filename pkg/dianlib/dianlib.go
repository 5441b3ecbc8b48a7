// Package dianlib provides a public API for processing Colombian DIAN
// electronic invoices.
//
// This package exposes the core types for parsing UBL 2.1 invoices,
// running SAP submission rules, and reconciling invoices against
// OCR-extracted purchase orders.
//
// Example usage:
//
//	p := dianlib.NewDefaultProcessor()
//	result, err := p.ProcessXML(ctx, reader)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Invoice.MonetaryTotal.PayableAmount)
package dianlib

import "github.com/rezonia/dian-processor/internal/model"

// Re-export core types for public API
type (
	InvoiceDocument     = model.InvoiceDocument
	PartyInfo           = model.PartyInfo
	TaxDetail           = model.TaxDetail
	InvoiceLine         = model.InvoiceLine
	OrderReference      = model.OrderReference
	AttachmentReference = model.AttachmentReference
	MonetaryTotal       = model.MonetaryTotal
	Value               = model.Value
)

// Re-export rule types
type (
	ValidationRule   = model.ValidationRule
	RuleCondition    = model.RuleCondition
	RuleResult       = model.RuleResult
	ValidationResult = model.ValidationResult
	RuleSeverity     = model.RuleSeverity
	RuleStatus       = model.RuleStatus
	Operator         = model.Operator
)

// Re-export reconciliation types
type (
	ExtractedField   = model.ExtractedField
	FieldComparison  = model.FieldComparison
	ComparisonResult = model.ComparisonResult
	MatchType        = model.MatchType
)

// Re-export severity and status constants
const (
	SeverityBlocking = model.SeverityBlocking
	SeverityWarning  = model.SeverityWarning

	StatusPassed  = model.StatusPassed
	StatusFailed  = model.StatusFailed
	StatusSkipped = model.StatusSkipped
)

// Re-export dynamic rule operators
const (
	OpGreater      = model.OpGreater
	OpLess         = model.OpLess
	OpGreaterEqual = model.OpGreaterEqual
	OpLessEqual    = model.OpLessEqual
	OpEqual        = model.OpEqual
	OpNotEqual     = model.OpNotEqual
	OpContains     = model.OpContains
	OpExists       = model.OpExists
)

// Re-export attachment reference types
const (
	ReferenceOrdenCompra    = model.ReferenceOrdenCompra
	ReferenceContrato       = model.ReferenceContrato
	ReferenceArchivoAdjunto = model.ReferenceArchivoAdjunto
	ReferenceDocumento      = model.ReferenceDocumento
)

// Re-export Value constructors for building dynamic rules
var (
	NullValue   = model.Null
	StringValue = model.String
	NumberValue = model.Number
	BoolValue   = model.Bool
)

// Re-export error types
type (
	ParseError      = model.ParseError
	ExtractionError = model.ExtractionError
)
