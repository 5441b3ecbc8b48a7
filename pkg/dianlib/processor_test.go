package dianlib_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/dian-processor/pkg/dianlib"
)

const invoiceXML = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2">
	<cbc:ID>FE12345</cbc:ID>
	<cbc:UUID schemeName="CUFE-SHA384">0123456789abcdef0123456789abcdef0123456789abcdef</cbc:UUID>
	<cbc:IssueDate>2025-04-23</cbc:IssueDate>
	<cac:OrderReference>
		<cbc:ID>OC-4500012345</cbc:ID>
	</cac:OrderReference>
	<cac:AccountingSupplierParty>
		<cac:Party>
			<cac:PartyTaxScheme>
				<cbc:RegistrationName>Servicios Andinos SAS</cbc:RegistrationName>
				<cbc:CompanyID>830099847</cbc:CompanyID>
			</cac:PartyTaxScheme>
		</cac:Party>
	</cac:AccountingSupplierParty>
	<cac:TaxTotal>
		<cbc:TaxAmount currencyID="COP">19000.00</cbc:TaxAmount>
		<cac:TaxSubtotal>
			<cbc:TaxableAmount currencyID="COP">100000.00</cbc:TaxableAmount>
			<cbc:TaxAmount currencyID="COP">19000.00</cbc:TaxAmount>
			<cac:TaxCategory>
				<cbc:Percent>19.00</cbc:Percent>
				<cac:TaxScheme>
					<cbc:ID>01</cbc:ID>
					<cbc:Name>IVA</cbc:Name>
				</cac:TaxScheme>
			</cac:TaxCategory>
		</cac:TaxSubtotal>
	</cac:TaxTotal>
	<cac:LegalMonetaryTotal>
		<cbc:LineExtensionAmount currencyID="COP">100000.00</cbc:LineExtensionAmount>
		<cbc:TaxInclusiveAmount currencyID="COP">119000.00</cbc:TaxInclusiveAmount>
		<cbc:PayableAmount currencyID="COP">119000.00</cbc:PayableAmount>
	</cac:LegalMonetaryTotal>
</Invoice>`

func TestNewProcessor(t *testing.T) {
	opts := dianlib.DefaultOptions()
	opts.EnableOCR = false

	proc := dianlib.NewProcessor(opts)
	require.NotNil(t, proc)
}

func TestNewDefaultProcessor(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()
	require.NotNil(t, proc)
}

func TestDefaultOptions(t *testing.T) {
	opts := dianlib.DefaultOptions()

	assert.True(t, opts.EnableOCR)
	assert.Equal(t, "https://openrouter.ai/api/v1", opts.OCRBaseURL)
	assert.Equal(t, "openai/gpt-4o-mini", opts.OCRModel)
	assert.Empty(t, opts.ValidNITs)
}

func TestProcessorProcessXML(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()

	result, err := proc.ProcessXML(context.Background(), strings.NewReader(invoiceXML))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "FE12345", result.Invoice.InvoiceNumber)
	assert.Equal(t, "830099847", result.Invoice.Supplier.CompanyID)
	assert.NotEmpty(t, result.PackageID)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.CanSubmit)
}

func TestProcessorProcess_AutoDetectXML(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()

	result, err := proc.Process(context.Background(), bytes.NewReader([]byte(invoiceXML)))
	require.NoError(t, err)
	assert.Equal(t, "FE12345", result.Invoice.InvoiceNumber)
}

func TestProcessorProcess_Unsupported(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()

	_, err := proc.Process(context.Background(), strings.NewReader("plain text"))
	require.Error(t, err)

	var parseErr *dianlib.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestProcessorValidate_CustomNITs(t *testing.T) {
	opts := dianlib.DefaultOptions()
	opts.EnableOCR = false
	opts.ValidNITs = []string{"999999999"}
	proc := dianlib.NewProcessor(opts)

	validation, err := proc.Validate(context.Background(), strings.NewReader(invoiceXML), nil)
	require.NoError(t, err)

	// 830099847 is not in the custom registry, so R001 blocks.
	assert.False(t, validation.CanSubmit)
	assert.Equal(t, 1, validation.BlockingFailures)
}

func TestProcessorValidate_DynamicRule(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()

	dynamic := []dianlib.ValidationRule{
		{
			ID:       "CUSTOM_001",
			Name:     "Total máximo",
			Severity: dianlib.SeverityWarning,
			Condition: &dianlib.RuleCondition{
				Field:    "total_pagable",
				Operator: dianlib.OpLess,
				Value:    dianlib.NumberValue(1000000),
			},
		},
	}

	validation, err := proc.Validate(context.Background(), strings.NewReader(invoiceXML), dynamic)
	require.NoError(t, err)
	assert.Len(t, validation.Results, 6)
	assert.True(t, validation.CanSubmit)
}

func TestProcessorCompare(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()

	ocFields := map[string]dianlib.ExtractedField{
		"PurchaseNumber": {Value: "OC-4500012345", Confidence: 0.97},
		"ProviderNit":    {Value: "830099847", Confidence: 0.95},
		"ProviderName":   {Value: "Servicios Andinos SAS", Confidence: 0.96},
		"InvoiceTotal":   {Value: "119000", Confidence: 0.92},
		"TotalBruto":     {Value: "100000", Confidence: 0.95},
		"TotalIva":       {Value: "19000", Confidence: 0.93},
	}

	comparison, err := proc.Compare([]byte(invoiceXML), ocFields)
	require.NoError(t, err)

	assert.True(t, comparison.OverallMatch)
	assert.Equal(t, 6, comparison.MatchedFields)
	assert.Equal(t, "success", comparison.ConclusionType)
}

func TestProcessorRules(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()

	listed := proc.Rules(nil)
	require.Len(t, listed, 5)
	assert.Equal(t, "R001", listed[0].ID)
	assert.Equal(t, dianlib.SeverityBlocking, listed[0].Severity)
}

func TestProcessBatch(t *testing.T) {
	proc := dianlib.NewDefaultProcessor()

	readers := []io.Reader{
		strings.NewReader(invoiceXML),
		strings.NewReader(invoiceXML),
	}

	results, err := proc.ProcessBatch(context.Background(), readers)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "FE12345", results[0].Invoice.InvoiceNumber)
	assert.Equal(t, "FE12345", results[1].Invoice.InvoiceNumber)
}
