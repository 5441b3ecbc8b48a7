package server

import (
	"github.com/rezonia/dian-processor/internal/model"
)

// ProcessResponse is the response for process endpoints
type ProcessResponse struct {
	PackageID   string                  `json:"package_id"`
	Invoice     *model.InvoiceDocument  `json:"invoice"`
	Fields      map[string]model.Value  `json:"fields,omitempty"`
	Validation  *model.ValidationResult `json:"validation,omitempty"`
	Comparison  *model.ComparisonResult `json:"comparison,omitempty"`
	XMLFileName string                  `json:"xml_file_name,omitempty"`
	Attachments []string                `json:"attachments,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
}

// PackageRequest asks for a package stored in the blob store
type PackageRequest struct {
	Path  string                 `json:"path"`
	Rules []model.ValidationRule `json:"rules,omitempty"`
}

// ValidateRequest carries an invoice XML plus optional dynamic rules
type ValidateRequest struct {
	XML   string                 `json:"xml"`
	Rules []model.ValidationRule `json:"rules,omitempty"`
}

// CompareRequest carries an invoice XML plus OCR-extracted OC fields
type CompareRequest struct {
	XML      string                          `json:"xml"`
	OCFields map[string]model.ExtractedField `json:"oc_fields"`
}

// RulesResponse lists the rules a validation run evaluates
type RulesResponse struct {
	Rules []model.ValidationRule `json:"rules"`
	Count int                    `json:"count"`
}

// InfoResponse is the response for info endpoint
type InfoResponse struct {
	Format   string `json:"format"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Details  string   `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
