package ubl

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/dian-processor/internal/model"
)

var qrURLRe = regexp.MustCompile(`(https?://[^\s]+searchqr[^\s]+)`)

// dateFormats tried in order when parsing date fields
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// Parser turns DIAN electronic-invoice XML (UBL 2.1) into an
// InvoiceDocument. It accepts both bare Invoice documents and
// AttachedDocument envelopes. The zero Parser is not usable; construct with
// NewParser.
type Parser struct {
	now func() time.Time
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithClock overrides the clock used for the permissive issue-date default.
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) {
		p.now = now
	}
}

// NewParser creates a parser with default settings.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse unwraps (if enveloped) and parses an invoice document. The only
// unrecoverable failure is malformed XML; every missing optional sub-element
// resolves to a zero/empty default.
func (p *Parser) Parse(data []byte) (*model.InvoiceDocument, error) {
	payload, envelopeRefs := Unwrap(string(data))

	doc := etree.NewDocument()
	if err := doc.ReadFromString(payload); err != nil {
		return nil, model.NewMalformedError(err)
	}
	root := doc.Root()
	if root == nil {
		return nil, model.NewParseError("document", "empty document", nil)
	}

	inv := &model.InvoiceDocument{
		InvoiceNumber:   childText(root, nsCBC, "ID"),
		CUFE:            childText(root, nsCBC, "UUID"),
		IssueTime:       childText(root, nsCBC, "IssueTime"),
		CurrencyCode:    childTextDefault(root, nsCBC, "DocumentCurrencyCode", "COP"),
		InvoiceTypeCode: childTextDefault(root, nsCBC, "InvoiceTypeCode", "01"),
	}

	// Permissive default: a missing or unparseable issue date resolves to the
	// current date instead of failing.
	if d, ok := parseDate(childText(root, nsCBC, "IssueDate")); ok {
		inv.IssueDate = d
	} else {
		y, m, day := p.now().Date()
		inv.IssueDate = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	if d, ok := parseDate(childText(root, nsCBC, "DueDate")); ok {
		inv.DueDate = &d
	}

	for _, note := range children(root, nsCBC, "Note") {
		if t := strings.TrimSpace(note.Text()); t != "" {
			inv.Notes = append(inv.Notes, t)
		}
	}
	inv.QRCode = findQRCode(inv.Notes)

	if el := child(root, nsCAC, "AccountingSupplierParty"); el != nil {
		inv.Supplier = parseParty(el)
	}
	if el := child(root, nsCAC, "AccountingCustomerParty"); el != nil {
		inv.Customer = parseParty(el)
	}

	for _, pm := range children(root, nsCAC, "PaymentMeans") {
		code := childText(pm, nsCBC, "PaymentMeansCode")
		if code == "" {
			continue
		}
		means := model.PaymentMeans{
			ID:   childTextDefault(pm, nsCBC, "ID", "1"),
			Code: code,
		}
		if d, ok := parseDate(childText(pm, nsCBC, "PaymentDueDate")); ok {
			means.DueDate = &d
		}
		inv.PaymentMeans = append(inv.PaymentMeans, means)
	}

	if period := child(root, nsCAC, "InvoicePeriod"); period != nil {
		ip := &model.InvoicePeriod{
			Description: childText(period, nsCBC, "Description"),
		}
		if d, ok := parseDate(childText(period, nsCBC, "StartDate")); ok {
			ip.StartDate = &d
		}
		if d, ok := parseDate(childText(period, nsCBC, "EndDate")); ok {
			ip.EndDate = &d
		}
		inv.InvoicePeriod = ip
	}

	// Entries without a resolvable scheme ID are discarded.
	for _, tt := range children(root, nsCAC, "TaxTotal") {
		if tax := parseTax(tt); tax.TaxSchemeID != "" {
			inv.Taxes = append(inv.Taxes, tax)
		}
	}
	for _, wt := range children(root, nsCAC, "WithholdingTaxTotal") {
		if tax := parseTax(wt); tax.TaxSchemeID != "" {
			inv.WithholdingTaxes = append(inv.WithholdingTaxes, tax)
		}
	}

	if mt := child(root, nsCAC, "LegalMonetaryTotal"); mt != nil {
		inv.MonetaryTotal = model.MonetaryTotal{
			LineExtensionAmount:  childDecimal(mt, nsCBC, "LineExtensionAmount"),
			TaxExclusiveAmount:   childDecimal(mt, nsCBC, "TaxExclusiveAmount"),
			TaxInclusiveAmount:   childDecimal(mt, nsCBC, "TaxInclusiveAmount"),
			AllowanceTotalAmount: childDecimal(mt, nsCBC, "AllowanceTotalAmount"),
			ChargeTotalAmount:    childDecimal(mt, nsCBC, "ChargeTotalAmount"),
			PayableAmount:        childDecimal(mt, nsCBC, "PayableAmount"),
		}
	}

	if pp := child(root, nsCAC, "PrepaidPayment"); pp != nil {
		inv.PrepaidAmount = childDecimal(pp, nsCBC, "PaidAmount")
	}

	discount, charges := decimal.Zero, decimal.Zero
	for _, ac := range children(root, nsCAC, "AllowanceCharge") {
		amount := childDecimal(ac, nsCBC, "Amount")
		if strings.EqualFold(childTextDefault(ac, nsCBC, "ChargeIndicator", "false"), "true") {
			charges = charges.Add(amount)
		} else {
			discount = discount.Add(amount)
		}
	}
	inv.TotalDiscount = discount
	inv.TotalCharges = charges

	for _, line := range children(root, nsCAC, "InvoiceLine") {
		inv.Lines = append(inv.Lines, parseLine(line))
	}
	inv.LineCount = len(inv.Lines)
	if declared := childText(root, nsCBC, "LineCountNumeric"); declared != "" {
		if n, err := strconv.Atoi(declared); err == nil {
			inv.LineCount = n
		}
	}

	inv.AttachmentReferences = envelopeRefs
	if or := child(root, nsCAC, "OrderReference"); or != nil {
		if orderID := childText(or, nsCBC, "ID"); orderID != "" {
			inv.OrderReference = &model.OrderReference{
				OrderID:      orderID,
				SalesOrderID: childText(or, nsCBC, "SalesOrderID"),
			}
			// Synthesized so attachment reconciliation can look for the PO file.
			inv.AttachmentReferences = append(inv.AttachmentReferences, model.AttachmentReference{
				ReferenceID:   orderID,
				ReferenceType: model.ReferenceOrdenCompra,
				Description:   "Orden de Compra referenciada en factura",
			})
		}
	}

	inv.ComputeDerivedTotals()
	return inv, nil
}

// parseParty handles AccountingSupplierParty and AccountingCustomerParty.
// Company ID and registration name each resolve through a fixed precedence
// chain; absent blocks never fail.
func parseParty(partyWrapper *etree.Element) model.PartyInfo {
	party := child(partyWrapper, nsCAC, "Party")
	if party == nil {
		party = partyWrapper
	}

	var info model.PartyInfo

	if pid := child(party, nsCAC, "PartyIdentification"); pid != nil {
		info.CompanyID = childText(pid, nsCBC, "ID")
	}

	if pts := child(party, nsCAC, "PartyTaxScheme"); pts != nil {
		info.RegistrationName = childText(pts, nsCBC, "RegistrationName")
		if info.CompanyID == "" {
			info.CompanyID = childText(pts, nsCBC, "CompanyID")
		}
		info.TaxLevelCode = childText(pts, nsCBC, "TaxLevelCode")
		if ts := child(pts, nsCAC, "TaxScheme"); ts != nil {
			info.TaxSchemeID = childText(ts, nsCBC, "ID")
		}
	}

	if acct := descendant(partyWrapper, nsCBC, "SupplierAssignedAccountID"); acct != nil {
		info.SupplierAssignedAccountID = strings.TrimSpace(acct.Text())
	}

	if ple := child(party, nsCAC, "PartyLegalEntity"); ple != nil && info.RegistrationName == "" {
		info.RegistrationName = childText(ple, nsCBC, "RegistrationName")
	}
	if pn := child(party, nsCAC, "PartyName"); pn != nil && info.RegistrationName == "" {
		info.RegistrationName = childText(pn, nsCBC, "Name")
	}

	if addr := descendant(party, nsCAC, "Address"); addr != nil {
		if line := child(addr, nsCAC, "AddressLine"); line != nil {
			info.AddressLine = childText(line, nsCBC, "Line")
		}
		info.CityName = childText(addr, nsCBC, "CityName")
		info.Department = childText(addr, nsCBC, "CountrySubentity")
		if country := child(addr, nsCAC, "Country"); country != nil {
			info.CountryCode = childText(country, nsCBC, "IdentificationCode")
		}
	}

	if contact := child(party, nsCAC, "Contact"); contact != nil {
		info.Email = childText(contact, nsCBC, "ElectronicMail")
		info.Phone = childText(contact, nsCBC, "Telephone")
	}

	return info
}

// parseTax handles TaxTotal and WithholdingTaxTotal. The subtotal block is
// preferred; totals without one are read directly.
func parseTax(taxEl *etree.Element) model.TaxDetail {
	sub := child(taxEl, nsCAC, "TaxSubtotal")
	if sub == nil {
		sub = taxEl
	}

	detail := model.TaxDetail{
		TaxableAmount: childDecimal(sub, nsCBC, "TaxableAmount"),
		TaxAmount:     childDecimal(sub, nsCBC, "TaxAmount"),
	}

	if cat := child(sub, nsCAC, "TaxCategory"); cat != nil {
		detail.TaxPercentage = childDecimal(cat, nsCBC, "Percent")
		if ts := child(cat, nsCAC, "TaxScheme"); ts != nil {
			detail.TaxSchemeID = childText(ts, nsCBC, "ID")
		}
	}

	detail.TaxName = model.TaxSchemeName(detail.TaxSchemeID)
	return detail
}

func parseLine(lineEl *etree.Element) model.InvoiceLine {
	line := model.InvoiceLine{
		LineID:              childText(lineEl, nsCBC, "ID"),
		UnitCode:            "EA",
		LineExtensionAmount: childDecimal(lineEl, nsCBC, "LineExtensionAmount"),
	}

	if qty := child(lineEl, nsCBC, "InvoicedQuantity"); qty != nil {
		line.Quantity = parseAmount(qty.Text())
		line.UnitCode = qty.SelectAttrValue("unitCode", "EA")
	}

	if item := child(lineEl, nsCAC, "Item"); item != nil {
		line.Description = childText(item, nsCBC, "Description")
		if line.Description == "" {
			line.Description = childText(item, nsCBC, "Name")
		}
		if std := child(item, nsCAC, "StandardItemIdentification"); std != nil {
			line.ProductCode = childText(std, nsCBC, "ID")
		}
		if line.ProductCode == "" {
			if sellers := child(item, nsCAC, "SellersItemIdentification"); sellers != nil {
				line.ProductCode = childText(sellers, nsCBC, "ID")
			}
		}
	}

	if price := child(lineEl, nsCAC, "Price"); price != nil {
		line.UnitPrice = childDecimal(price, nsCBC, "PriceAmount")
	}

	if tt := child(lineEl, nsCAC, "TaxTotal"); tt != nil {
		amount := childDecimal(tt, nsCBC, "TaxAmount")
		line.TaxAmount = &amount
	}

	return line
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// findQRCode scans notes for the DIAN verification URL and returns the first
// match.
func findQRCode(notes []string) string {
	for _, note := range notes {
		if !strings.Contains(note, "catalogo-vpfe.dian.gov.co") && !strings.Contains(note, "searchqr") {
			continue
		}
		if m := qrURLRe.FindString(note); m != "" {
			return m
		}
	}
	return ""
}
