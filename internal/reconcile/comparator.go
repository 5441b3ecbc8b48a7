package reconcile

import (
	"fmt"
	"strings"

	"github.com/rezonia/dian-processor/internal/model"
)

// Comparator evaluates the fixed field-mapping table against an invoice and
// the OCR output for its purchase order. Construct with NewComparator; the
// comparator holds only the read-only mapping table and is safe for
// concurrent use.
type Comparator struct {
	mappings []FieldMapping
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*Comparator)

// WithMappings replaces the comparison table.
func WithMappings(mappings []FieldMapping) ComparatorOption {
	return func(c *Comparator) {
		c.mappings = append([]FieldMapping(nil), mappings...)
	}
}

// NewComparator creates a comparator with the default six-field table.
func NewComparator(opts ...ComparatorOption) *Comparator {
	c := &Comparator{mappings: DefaultMappings()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare reconciles the invoice against the OCR-extracted purchase-order
// fields. Every mapped pair yields a FieldComparison; partial data resolves
// to missing_* states rather than errors.
func (c *Comparator) Compare(
	invoiceID string,
	doc *model.InvoiceDocument,
	ocFields map[string]model.ExtractedField,
) model.ComparisonResult {
	xmlValues := xmlFieldValues(doc)

	comparisons := make([]model.FieldComparison, 0, len(c.mappings))
	matched := 0
	for _, mapping := range c.mappings {
		xmlVal, xmlPresent := xmlValues[mapping.XMLField]
		ocVal, ocPresent := "", false
		if extracted, ok := ocFields[mapping.OCField]; ok && extracted.Value != "" {
			ocVal, ocPresent = extracted.Value, true
		}
		if xmlVal == "" {
			xmlPresent = false
		}

		match, matchType, notes := compareValues(xmlVal, xmlPresent, ocVal, ocPresent, mapping.Kind, mapping.Tolerance)
		if match {
			matched++
		}
		comparisons = append(comparisons, model.FieldComparison{
			Field:     mapping.XMLField,
			Label:     mapping.Label,
			XMLValue:  xmlVal,
			OCValue:   ocVal,
			Match:     match,
			MatchType: matchType,
			Notes:     notes,
		})
	}

	total := len(comparisons)
	percentage := 0.0
	if total > 0 {
		percentage = float64(matched) / float64(total) * 100
	}

	conclusion, conclusionType := concludeFromPercentage(percentage, matched, total)

	result := model.ComparisonResult{
		InvoiceID:       invoiceID,
		XMLOCReference:  "N/A",
		Comparisons:     comparisons,
		MatchedFields:   matched,
		TotalFields:     total,
		MatchPercentage: percentage,
		OverallMatch:    percentage >= 80,
		Conclusion:      conclusion,
		ConclusionType:  conclusionType,
	}
	if ref := xmlValues["order_reference"]; ref != "" {
		result.XMLOCReference = ref
	}
	if po, ok := ocFields["PurchaseNumber"]; ok {
		result.OCDocumentNumber = po.Value
	}
	return result
}

// xmlFieldValues projects the six comparable values out of the document.
func xmlFieldValues(doc *model.InvoiceDocument) map[string]string {
	values := map[string]string{}
	if doc == nil {
		return values
	}
	if doc.OrderReference != nil {
		values["order_reference"] = doc.OrderReference.OrderID
	}
	values["supplier_nit"] = doc.Supplier.CompanyID
	values["supplier_name"] = doc.Supplier.RegistrationName
	values["total_payable"] = doc.MonetaryTotal.PayableAmount.String()
	values["line_extension_amount"] = doc.MonetaryTotal.LineExtensionAmount.String()
	values["total_iva"] = doc.TotalIVA.String()
	return values
}

func compareValues(xmlVal string, xmlPresent bool, ocVal string, ocPresent bool, kind model.CompareKind, tolerance float64) (bool, model.MatchType, string) {
	switch {
	case !xmlPresent && !ocPresent:
		return true, model.MatchBothMissing, "Ambos valores están vacíos"
	case !xmlPresent:
		return false, model.MatchMissingXML, "Valor no encontrado en XML"
	case !ocPresent:
		return false, model.MatchMissingOC, "Valor no extraído de la OC"
	}

	xmlStr := strings.ToLower(strings.TrimSpace(xmlVal))
	ocStr := strings.ToLower(strings.TrimSpace(ocVal))

	switch kind {
	case model.CompareExact:
		if xmlStr == ocStr {
			return true, model.MatchExact, ""
		}
		if strings.Contains(ocStr, xmlStr) || strings.Contains(xmlStr, ocStr) {
			return true, model.MatchPartial, "Coincidencia parcial"
		}
		return false, model.MatchMismatch, fmt.Sprintf("XML: %s, OC: %s", xmlVal, ocVal)

	case model.CompareContains:
		// A full substring satisfies the stronger match type here.
		if strings.Contains(ocStr, xmlStr) || strings.Contains(xmlStr, ocStr) {
			return true, model.MatchExact, ""
		}
		if wordOverlap(xmlStr, ocStr) {
			return true, model.MatchPartial, "Coincidencia parcial de palabras"
		}
		return false, model.MatchMismatch, fmt.Sprintf("XML: %s, OC: %s", xmlVal, ocVal)

	case model.CompareNumeric:
		if tolerance == 0 {
			tolerance = DefaultTolerance
		}
		xmlNum, errX := ParseColombianNumber(xmlVal)
		ocNum, errO := ParseColombianNumber(ocVal)
		if errX != nil || errO != nil {
			// Unparseable after normalization: recover with string equality.
			if xmlStr == ocStr {
				return true, model.MatchExact, ""
			}
			return false, model.MatchMismatch, "No se pudo comparar numéricamente"
		}
		if xmlNum == ocNum {
			return true, model.MatchExact, ""
		}
		if xmlNum != 0 {
			diffPct := abs(xmlNum-ocNum) / abs(xmlNum)
			if diffPct <= tolerance {
				return true, model.MatchNumericClose, fmt.Sprintf("Diferencia: %.1f%%", diffPct*100)
			}
		}
		return false, model.MatchMismatch, fmt.Sprintf("XML: $%.0f, OC: $%.0f", xmlNum, ocNum)

	default:
		return false, model.MatchMismatch, "Tipo de comparación desconocido"
	}
}

// wordOverlap requires the shared words to cover at least half of the smaller
// word set.
func wordOverlap(a, b string) bool {
	wordsA := toSet(strings.Fields(a))
	wordsB := toSet(strings.Fields(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	overlap := 0
	for w := range wordsA {
		if wordsB[w] {
			overlap++
		}
	}
	smaller := len(wordsA)
	if len(wordsB) < smaller {
		smaller = len(wordsB)
	}
	return float64(overlap) >= float64(smaller)*0.5
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func concludeFromPercentage(percentage float64, matched, total int) (string, string) {
	switch {
	case percentage >= 90:
		return fmt.Sprintf("Los datos de la factura XML coinciden con la Orden de Compra. %d de %d campos verificados correctamente.", matched, total), "success"
	case percentage >= 70:
		return fmt.Sprintf("La mayoría de datos coinciden (%d/%d), pero hay algunas discrepancias que revisar.", matched, total), "warning"
	default:
		return fmt.Sprintf("Se encontraron discrepancias significativas entre el XML y la OC. Solo %d de %d campos coinciden.", matched, total), "error"
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
