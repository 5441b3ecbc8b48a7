package ubl_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/parser/ubl"
)

const sampleInvoiceXML = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
         xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2">
  <cbc:ID>FE12345</cbc:ID>
  <cbc:UUID>a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8</cbc:UUID>
  <cbc:IssueDate>2026-03-15</cbc:IssueDate>
  <cbc:IssueTime>10:30:00-05:00</cbc:IssueTime>
  <cbc:DueDate>2026-04-15</cbc:DueDate>
  <cbc:DocumentCurrencyCode>COP</cbc:DocumentCurrencyCode>
  <cbc:InvoiceTypeCode>01</cbc:InvoiceTypeCode>
  <cbc:LineCountNumeric>2</cbc:LineCountNumeric>
  <cbc:Note>Factura electronica de venta</cbc:Note>
  <cbc:Note>Consulte en https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey=a1b2c3d4</cbc:Note>
  <cac:OrderReference>
    <cbc:ID>OC-4500012345</cbc:ID>
    <cbc:SalesOrderID>SO-777</cbc:SalesOrderID>
  </cac:OrderReference>
  <cac:AccountingSupplierParty>
    <cac:Party>
      <cac:PartyName>
        <cbc:Name>Proveedor Andino</cbc:Name>
      </cac:PartyName>
      <cac:PartyTaxScheme>
        <cbc:RegistrationName>Proveedor Andino SAS</cbc:RegistrationName>
        <cbc:CompanyID>830099847</cbc:CompanyID>
        <cbc:TaxLevelCode>O-13</cbc:TaxLevelCode>
        <cac:TaxScheme>
          <cbc:ID>01</cbc:ID>
        </cac:TaxScheme>
      </cac:PartyTaxScheme>
      <cac:PhysicalLocation>
        <cac:Address>
          <cbc:CityName>Bogota</cbc:CityName>
          <cbc:CountrySubentity>Cundinamarca</cbc:CountrySubentity>
          <cac:AddressLine>
            <cbc:Line>Calle 100 # 8-50</cbc:Line>
          </cac:AddressLine>
          <cac:Country>
            <cbc:IdentificationCode>CO</cbc:IdentificationCode>
          </cac:Country>
        </cac:Address>
      </cac:PhysicalLocation>
      <cac:Contact>
        <cbc:Telephone>6011234567</cbc:Telephone>
        <cbc:ElectronicMail>facturacion@andino.co</cbc:ElectronicMail>
      </cac:Contact>
    </cac:Party>
  </cac:AccountingSupplierParty>
  <cac:AccountingCustomerParty>
    <cac:Party>
      <cac:PartyIdentification>
        <cbc:ID>900123456</cbc:ID>
      </cac:PartyIdentification>
      <cac:PartyLegalEntity>
        <cbc:RegistrationName>Cliente Industrial SA</cbc:RegistrationName>
      </cac:PartyLegalEntity>
    </cac:Party>
  </cac:AccountingCustomerParty>
  <cac:PaymentMeans>
    <cbc:ID>1</cbc:ID>
    <cbc:PaymentMeansCode>31</cbc:PaymentMeansCode>
    <cbc:PaymentDueDate>2026-04-15</cbc:PaymentDueDate>
  </cac:PaymentMeans>
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
  <cac:WithholdingTaxTotal>
    <cbc:TaxAmount currencyID="COP">2500.00</cbc:TaxAmount>
    <cac:TaxSubtotal>
      <cbc:TaxableAmount currencyID="COP">100000.00</cbc:TaxableAmount>
      <cbc:TaxAmount currencyID="COP">2500.00</cbc:TaxAmount>
      <cac:TaxCategory>
        <cbc:Percent>2.50</cbc:Percent>
        <cac:TaxScheme>
          <cbc:ID>06</cbc:ID>
        </cac:TaxScheme>
      </cac:TaxCategory>
    </cac:TaxSubtotal>
  </cac:WithholdingTaxTotal>
  <cac:LegalMonetaryTotal>
    <cbc:LineExtensionAmount currencyID="COP">100000.00</cbc:LineExtensionAmount>
    <cbc:TaxExclusiveAmount currencyID="COP">100000.00</cbc:TaxExclusiveAmount>
    <cbc:TaxInclusiveAmount currencyID="COP">119000.00</cbc:TaxInclusiveAmount>
    <cbc:PayableAmount currencyID="COP">119000.00</cbc:PayableAmount>
  </cac:LegalMonetaryTotal>
  <cac:InvoiceLine>
    <cbc:ID>1</cbc:ID>
    <cbc:InvoicedQuantity unitCode="EA">10</cbc:InvoicedQuantity>
    <cbc:LineExtensionAmount currencyID="COP">60000.00</cbc:LineExtensionAmount>
    <cac:Item>
      <cbc:Description>Tornillo industrial 3/8</cbc:Description>
      <cac:StandardItemIdentification>
        <cbc:ID>TOR-038</cbc:ID>
      </cac:StandardItemIdentification>
    </cac:Item>
    <cac:Price>
      <cbc:PriceAmount currencyID="COP">6000.00</cbc:PriceAmount>
    </cac:Price>
  </cac:InvoiceLine>
  <cac:InvoiceLine>
    <cbc:ID>2</cbc:ID>
    <cbc:InvoicedQuantity unitCode="KG">4</cbc:InvoicedQuantity>
    <cbc:LineExtensionAmount currencyID="COP">40000.00</cbc:LineExtensionAmount>
    <cac:Item>
      <cbc:Name>Soldadura MIG</cbc:Name>
      <cac:SellersItemIdentification>
        <cbc:ID>SOL-MIG</cbc:ID>
      </cac:SellersItemIdentification>
    </cac:Item>
    <cac:Price>
      <cbc:PriceAmount currencyID="COP">10000.00</cbc:PriceAmount>
    </cac:Price>
  </cac:InvoiceLine>
</Invoice>`

func TestParse_Header(t *testing.T) {
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)

	assert.Equal(t, "FE12345", doc.InvoiceNumber)
	assert.Equal(t, "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8", doc.CUFE)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	require.NotNil(t, doc.DueDate)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), *doc.DueDate)
	assert.Equal(t, "COP", doc.CurrencyCode)
	assert.Equal(t, "01", doc.InvoiceTypeCode)
	assert.Equal(t, 2, doc.LineCount)
}

func TestParse_Parties(t *testing.T) {
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)

	assert.Equal(t, "830099847", doc.Supplier.CompanyID)
	// PartyTaxScheme registration name wins over PartyName.
	assert.Equal(t, "Proveedor Andino SAS", doc.Supplier.RegistrationName)
	assert.Equal(t, "O-13", doc.Supplier.TaxLevelCode)
	assert.Equal(t, "01", doc.Supplier.TaxSchemeID)
	assert.Equal(t, "Calle 100 # 8-50", doc.Supplier.AddressLine)
	assert.Equal(t, "Bogota", doc.Supplier.CityName)
	assert.Equal(t, "Cundinamarca", doc.Supplier.Department)
	assert.Equal(t, "CO", doc.Supplier.CountryCode)
	assert.Equal(t, "facturacion@andino.co", doc.Supplier.Email)

	assert.Equal(t, "900123456", doc.Customer.CompanyID)
	assert.Equal(t, "Cliente Industrial SA", doc.Customer.RegistrationName)
}

func TestParse_TaxesAndTotals(t *testing.T) {
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)

	require.Len(t, doc.Taxes, 1)
	assert.Equal(t, "01", doc.Taxes[0].TaxSchemeID)
	assert.Equal(t, "IVA", doc.Taxes[0].TaxName)
	assert.True(t, doc.Taxes[0].TaxPercentage.Equal(decimal.NewFromInt(19)),
		"Expected 19, got %s", doc.Taxes[0].TaxPercentage.String())

	require.Len(t, doc.WithholdingTaxes, 1)
	assert.Equal(t, "ReteRenta", doc.WithholdingTaxes[0].TaxName)

	assert.True(t, doc.TotalIVA.Equal(decimal.NewFromInt(19000)),
		"Expected IVA 19000, got %s", doc.TotalIVA.String())
	assert.True(t, doc.TotalRetenciones.Equal(decimal.NewFromInt(2500)),
		"Expected retenciones 2500, got %s", doc.TotalRetenciones.String())
	assert.True(t, doc.MonetaryTotal.PayableAmount.Equal(decimal.NewFromInt(119000)))
}

func TestParse_Lines(t *testing.T) {
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)

	require.Len(t, doc.Lines, 2)

	assert.Equal(t, "Tornillo industrial 3/8", doc.Lines[0].Description)
	assert.Equal(t, "TOR-038", doc.Lines[0].ProductCode)
	assert.Equal(t, "EA", doc.Lines[0].UnitCode)
	assert.True(t, doc.Lines[0].UnitPrice.Equal(decimal.NewFromInt(6000)))

	// Name fallback when Description is absent; sellers code fallback too.
	assert.Equal(t, "Soldadura MIG", doc.Lines[1].Description)
	assert.Equal(t, "SOL-MIG", doc.Lines[1].ProductCode)
	assert.Equal(t, "KG", doc.Lines[1].UnitCode)
}

func TestParse_OrderReferenceSynthesizesAttachment(t *testing.T) {
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)

	require.NotNil(t, doc.OrderReference)
	assert.Equal(t, "OC-4500012345", doc.OrderReference.OrderID)
	assert.Equal(t, "SO-777", doc.OrderReference.SalesOrderID)

	require.Len(t, doc.AttachmentReferences, 1)
	assert.Equal(t, model.ReferenceOrdenCompra, doc.AttachmentReferences[0].ReferenceType)
	assert.Equal(t, "OC-4500012345", doc.AttachmentReferences[0].ReferenceID)
	assert.False(t, doc.AttachmentReferences[0].FoundInArchive)
}

func TestParse_QRCode(t *testing.T) {
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)

	assert.Contains(t, doc.QRCode, "searchqr")
	assert.Contains(t, doc.QRCode, "catalogo-vpfe.dian.gov.co")
	require.Len(t, doc.Notes, 2)
}

func TestParse_Idempotent(t *testing.T) {
	p := ubl.NewParser()
	first, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)
	second, err := p.Parse([]byte(sampleInvoiceXML))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_MalformedXML(t *testing.T) {
	p := ubl.NewParser()
	_, err := p.Parse([]byte("<Invoice><unclosed>"))
	require.Error(t, err)

	var parseErr *model.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParse_MissingIssueDateDefaultsToToday(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 14, 5, 0, 0, time.UTC)
	p := ubl.NewParser(ubl.WithClock(func() time.Time { return fixed }))

	xml := `<Invoice xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:ID>FE1</cbc:ID>
</Invoice>`
	doc, err := p.Parse([]byte(xml))
	require.NoError(t, err)

	// Permissive default rather than a hard failure.
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), doc.IssueDate)
}

func TestParse_MinimalDocumentDefaults(t *testing.T) {
	xml := `<Invoice xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:ID>FE2</cbc:ID>
</Invoice>`
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(xml))
	require.NoError(t, err)

	assert.Equal(t, "COP", doc.CurrencyCode)
	assert.Equal(t, "01", doc.InvoiceTypeCode)
	assert.True(t, doc.MonetaryTotal.PayableAmount.IsZero())
	assert.Empty(t, doc.Taxes)
	assert.Nil(t, doc.OrderReference)
	assert.Equal(t, 0, doc.LineCount)
}

func TestParse_UnqualifiedLegacyDocument(t *testing.T) {
	xml := `<Invoice>
  <ID>FE-LEGACY</ID>
  <UUID>0123456789abcdef0123456789abcdef</UUID>
  <IssueDate>2025-12-01</IssueDate>
  <LegalMonetaryTotal>
    <PayableAmount>50000</PayableAmount>
  </LegalMonetaryTotal>
</Invoice>`
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(xml))
	require.NoError(t, err)

	assert.Equal(t, "FE-LEGACY", doc.InvoiceNumber)
	assert.True(t, doc.MonetaryTotal.PayableAmount.Equal(decimal.NewFromInt(50000)))
}

func TestParse_ThousandsCommasStripped(t *testing.T) {
	xml := `<Invoice xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2">
  <cbc:ID>FE3</cbc:ID>
  <cac:LegalMonetaryTotal>
    <cbc:PayableAmount>1,190,000.50</cbc:PayableAmount>
  </cac:LegalMonetaryTotal>
</Invoice>`
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(xml))
	require.NoError(t, err)

	want := decimal.NewFromFloat(1190000.50)
	assert.True(t, doc.MonetaryTotal.PayableAmount.Equal(want),
		"Expected %s, got %s", want.String(), doc.MonetaryTotal.PayableAmount.String())
}

func TestParse_UnknownTaxSchemeNamedOtros(t *testing.T) {
	xml := `<Invoice xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2">
  <cbc:ID>FE4</cbc:ID>
  <cac:TaxTotal>
    <cac:TaxSubtotal>
      <cbc:TaxableAmount>1000</cbc:TaxableAmount>
      <cbc:TaxAmount>80</cbc:TaxAmount>
      <cac:TaxCategory>
        <cbc:Percent>8.0</cbc:Percent>
        <cac:TaxScheme><cbc:ID>ZZ</cbc:ID></cac:TaxScheme>
      </cac:TaxCategory>
    </cac:TaxSubtotal>
  </cac:TaxTotal>
  <cac:TaxTotal>
    <cbc:TaxAmount>500</cbc:TaxAmount>
  </cac:TaxTotal>
</Invoice>`
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(xml))
	require.NoError(t, err)

	// The schemeless second total is discarded.
	require.Len(t, doc.Taxes, 1)
	assert.Equal(t, "Otros", doc.Taxes[0].TaxName)
	assert.True(t, doc.TotalIVA.IsZero())
}

func TestParse_AllowanceChargeSplit(t *testing.T) {
	xml := `<Invoice xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2">
  <cbc:ID>FE5</cbc:ID>
  <cac:AllowanceCharge>
    <cbc:ChargeIndicator>false</cbc:ChargeIndicator>
    <cbc:Amount>1500</cbc:Amount>
  </cac:AllowanceCharge>
  <cac:AllowanceCharge>
    <cbc:ChargeIndicator>true</cbc:ChargeIndicator>
    <cbc:Amount>800</cbc:Amount>
  </cac:AllowanceCharge>
  <cac:AllowanceCharge>
    <cbc:Amount>200</cbc:Amount>
  </cac:AllowanceCharge>
</Invoice>`
	p := ubl.NewParser()
	doc, err := p.Parse([]byte(xml))
	require.NoError(t, err)

	assert.True(t, doc.TotalDiscount.Equal(decimal.NewFromInt(1700)),
		"Expected discount 1700, got %s", doc.TotalDiscount.String())
	assert.True(t, doc.TotalCharges.Equal(decimal.NewFromInt(800)),
		"Expected charges 800, got %s", doc.TotalCharges.String())
}
