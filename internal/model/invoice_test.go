package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/dian-processor/internal/model"
)

func TestInvoiceDocument_Creation(t *testing.T) {
	doc := model.InvoiceDocument{
		InvoiceNumber:   "FE12345",
		CUFE:            "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0a1b2c3d4",
		IssueDate:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CurrencyCode:    "COP",
		InvoiceTypeCode: "01",
		Supplier: model.PartyInfo{
			CompanyID:        "830099847",
			RegistrationName: "Proveedor SAS",
		},
		Customer: model.PartyInfo{
			CompanyID:        "900123456",
			RegistrationName: "Cliente SA",
		},
	}

	assert.Equal(t, "FE12345", doc.InvoiceNumber)
	assert.Equal(t, "COP", doc.CurrencyCode)
	assert.Equal(t, "830099847", doc.Supplier.CompanyID)
	assert.Equal(t, "900123456", doc.Customer.CompanyID)
}

func TestTaxSchemeName(t *testing.T) {
	tests := []struct {
		schemeID string
		want     string
	}{
		{"01", "IVA"},
		{"04", "INC"},
		{"05", "ReteIVA"},
		{"06", "ReteRenta"},
		{"07", "ReteICA"},
		{"99", "Otros"},
		{"", "Otros"},
	}

	for _, tt := range tests {
		t.Run(tt.schemeID, func(t *testing.T) {
			assert.Equal(t, tt.want, model.TaxSchemeName(tt.schemeID))
		})
	}
}

func TestComputeDerivedTotals(t *testing.T) {
	doc := model.InvoiceDocument{
		Taxes: []model.TaxDetail{
			{TaxSchemeID: "01", TaxName: "IVA", TaxAmount: decimal.NewFromInt(19000)},
			{TaxSchemeID: "04", TaxName: "INC", TaxAmount: decimal.NewFromInt(5000)},
			{TaxSchemeID: "01", TaxName: "IVA", TaxAmount: decimal.NewFromInt(1900)},
		},
		WithholdingTaxes: []model.TaxDetail{
			{TaxSchemeID: "06", TaxName: "ReteRenta", TaxAmount: decimal.NewFromInt(2500)},
			{TaxSchemeID: "07", TaxName: "ReteICA", TaxAmount: decimal.NewFromInt(414)},
		},
	}

	doc.ComputeDerivedTotals()

	// Only scheme 01 counts toward IVA; INC is excluded.
	assert.True(t, doc.TotalIVA.Equal(decimal.NewFromInt(20900)),
		"Expected total IVA 20900, got %s", doc.TotalIVA.String())

	// All withholdings count regardless of sub-type.
	assert.True(t, doc.TotalRetenciones.Equal(decimal.NewFromInt(2914)),
		"Expected retenciones 2914, got %s", doc.TotalRetenciones.String())
}

func TestComputeDerivedTotals_Empty(t *testing.T) {
	var doc model.InvoiceDocument
	doc.ComputeDerivedTotals()

	assert.True(t, doc.TotalIVA.IsZero())
	assert.True(t, doc.TotalRetenciones.IsZero())
}

func TestIVATax(t *testing.T) {
	doc := model.InvoiceDocument{
		Taxes: []model.TaxDetail{
			{TaxSchemeID: "04", TaxName: "INC", TaxPercentage: decimal.NewFromInt(8)},
			{TaxSchemeID: "01", TaxName: "IVA", TaxPercentage: decimal.NewFromInt(19)},
		},
	}

	iva := doc.IVATax()
	require.NotNil(t, iva)
	assert.Equal(t, "IVA", iva.TaxName)
	assert.True(t, iva.TaxPercentage.Equal(decimal.NewFromInt(19)))

	doc.Taxes = doc.Taxes[:1]
	assert.Nil(t, doc.IVATax())
}

func TestAttachmentReference_JSON(t *testing.T) {
	ref := model.AttachmentReference{
		ReferenceID:     "OC-4500012345",
		ReferenceType:   model.ReferenceOrdenCompra,
		FoundInArchive:  true,
		MatchedFilename: "OC-4500012345.pdf",
	}

	b, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"found_in_zip":true`)
	assert.Contains(t, string(b), `"matched_filename":"OC-4500012345.pdf"`)
}

func TestParseError(t *testing.T) {
	err := &model.ParseError{
		Field:   "cufe",
		Message: "invalid format",
	}

	require.Contains(t, err.Error(), "cufe")
	require.Contains(t, err.Error(), "invalid format")
}

func TestParseError_WithCause(t *testing.T) {
	cause := assert.AnError
	err := model.NewParseError("issue_date", "parse failed", cause)

	require.Contains(t, err.Error(), "issue_date")
	require.ErrorIs(t, err, cause)
}

func TestMalformedError(t *testing.T) {
	cause := assert.AnError
	err := model.NewMalformedError(cause)

	require.Contains(t, err.Error(), "malformed XML")
	require.ErrorIs(t, err, cause)
}
