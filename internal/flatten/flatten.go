// Package flatten projects a parsed invoice into a flat, string-keyed field
// map. The map is the generic substrate for rule conditions and for building
// reconciliation/display context. Flattening is deterministic: the same
// document always produces the same map.
package flatten

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rezonia/dian-processor/internal/model"
)

// Document flattens an InvoiceDocument into field-name → value pairs.
func Document(doc *model.InvoiceDocument) map[string]model.Value {
	fields := map[string]model.Value{
		"invoice_number":    model.String(doc.InvoiceNumber),
		"cufe":              model.String(doc.CUFE),
		"issue_date":        model.String(doc.IssueDate.Format("2006-01-02")),
		"issue_time":        stringOrNull(doc.IssueTime),
		"due_date":          model.Null(),
		"currency_code":     model.String(doc.CurrencyCode),
		"invoice_type_code": model.String(doc.InvoiceTypeCode),

		"supplier_nit":        model.String(doc.Supplier.CompanyID),
		"supplier_name":       model.String(doc.Supplier.RegistrationName),
		"supplier_tax_level":  stringOrNull(doc.Supplier.TaxLevelCode),
		"supplier_address":    stringOrNull(doc.Supplier.AddressLine),
		"supplier_city":       stringOrNull(doc.Supplier.CityName),
		"supplier_department": stringOrNull(doc.Supplier.Department),
		"supplier_email":      stringOrNull(doc.Supplier.Email),
		"supplier_phone":      stringOrNull(doc.Supplier.Phone),

		"customer_nit":           model.String(doc.Customer.CompanyID),
		"customer_name":          model.String(doc.Customer.RegistrationName),
		"customer_tax_level":     stringOrNull(doc.Customer.TaxLevelCode),
		"customer_supplier_code": stringOrNull(doc.Customer.SupplierAssignedAccountID),
		"customer_address":       stringOrNull(doc.Customer.AddressLine),
		"customer_city":          stringOrNull(doc.Customer.CityName),

		"subtotal":          number(doc.MonetaryTotal.LineExtensionAmount),
		"total_iva":         number(doc.TotalIVA),
		"total_retenciones": number(doc.TotalRetenciones),
		"total_con_iva":     number(doc.MonetaryTotal.TaxInclusiveAmount),
		"total_pagable":     number(doc.MonetaryTotal.PayableAmount),
		"total_descuentos":  number(doc.TotalDiscount),
		"total_cargos":      number(doc.TotalCharges),
		"prepago":           number(doc.PrepaidAmount),

		"orden_compra": model.Null(),
		"sales_order":  model.Null(),
		"qr_code":      stringOrNull(doc.QRCode),
		"line_count":   model.Number(float64(doc.LineCount)),
	}

	if doc.DueDate != nil {
		fields["due_date"] = model.String(doc.DueDate.Format("2006-01-02"))
	}
	if doc.OrderReference != nil {
		fields["orden_compra"] = model.String(doc.OrderReference.OrderID)
		fields["sales_order"] = stringOrNull(doc.OrderReference.SalesOrderID)
	}

	notes := make([]model.Value, 0, len(doc.Notes))
	for _, n := range doc.Notes {
		notes = append(notes, model.String(n))
	}
	fields["notes"] = model.Array(notes)

	fields["taxes"] = taxArray(doc.Taxes)
	fields["withholding_taxes"] = taxArray(doc.WithholdingTaxes)

	// Per-tax scalar keys derived from the resolved name, e.g. tax_iva_valor.
	for _, tax := range doc.Taxes {
		addTaxKeys(fields, "tax_"+strings.ToLower(tax.TaxName), tax)
	}
	for _, tax := range doc.WithholdingTaxes {
		addTaxKeys(fields, "retencion_"+strings.ToLower(tax.TaxName), tax)
	}

	items := make([]model.Value, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		item := map[string]model.Value{
			"line_id":               model.String(line.LineID),
			"description":           model.String(line.Description),
			"quantity":              number(line.Quantity),
			"unit_code":             model.String(line.UnitCode),
			"unit_price":            number(line.UnitPrice),
			"line_extension_amount": number(line.LineExtensionAmount),
			"product_code":          stringOrNull(line.ProductCode),
			"tax_amount":            model.Null(),
		}
		if line.TaxAmount != nil {
			item["tax_amount"] = number(*line.TaxAmount)
		}
		items = append(items, model.Object(item))
	}
	fields["items"] = model.Array(items)

	refs := make([]model.Value, 0, len(doc.AttachmentReferences))
	for _, ref := range doc.AttachmentReferences {
		refs = append(refs, model.Object(map[string]model.Value{
			"reference_id":     model.String(ref.ReferenceID),
			"reference_type":   model.String(string(ref.ReferenceType)),
			"description":      stringOrNull(ref.Description),
			"found_in_zip":     model.Bool(ref.FoundInArchive),
			"matched_filename": stringOrNull(ref.MatchedFilename),
		}))
	}
	fields["attachment_references"] = model.Array(refs)

	return fields
}

func addTaxKeys(fields map[string]model.Value, prefix string, tax model.TaxDetail) {
	fields[prefix+"_base"] = number(tax.TaxableAmount)
	fields[prefix+"_porcentaje"] = number(tax.TaxPercentage)
	fields[prefix+"_valor"] = number(tax.TaxAmount)
}

func taxArray(taxes []model.TaxDetail) model.Value {
	out := make([]model.Value, 0, len(taxes))
	for _, tax := range taxes {
		out = append(out, model.Object(map[string]model.Value{
			"tax_scheme_id":  model.String(tax.TaxSchemeID),
			"tax_name":       model.String(tax.TaxName),
			"taxable_amount": number(tax.TaxableAmount),
			"tax_percentage": number(tax.TaxPercentage),
			"tax_amount":     number(tax.TaxAmount),
		}))
	}
	return model.Array(out)
}

func number(d decimal.Decimal) model.Value {
	f, _ := d.Float64()
	return model.Number(f)
}

func stringOrNull(s string) model.Value {
	if s == "" {
		return model.Null()
	}
	return model.String(s)
}
