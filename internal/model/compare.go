package model

// MatchType tags the outcome of one field comparison.
type MatchType string

const (
	MatchExact        MatchType = "exact"
	MatchPartial      MatchType = "partial"
	MatchNumericClose MatchType = "numeric_close"
	MatchMismatch     MatchType = "mismatch"
	MatchMissingXML   MatchType = "missing_xml"
	MatchMissingOC    MatchType = "missing_oc"
	MatchBothMissing  MatchType = "both_missing"
)

// CompareKind selects the comparison semantics for a mapped field pair.
type CompareKind string

const (
	CompareExact    CompareKind = "exact"
	CompareContains CompareKind = "contains"
	CompareNumeric  CompareKind = "numeric"
)

// ExtractedField is one OCR-extracted named field: raw value, model
// confidence, and the extractor's declared type tag.
type ExtractedField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Type       string  `json:"type,omitempty"`
}

// FieldComparison is the result of comparing one XML-derived value against
// its OCR counterpart.
type FieldComparison struct {
	Field     string    `json:"field"`
	Label     string    `json:"label"`
	XMLValue  string    `json:"xml_value"`
	OCValue   string    `json:"oc_value"`
	Match     bool      `json:"match"`
	MatchType MatchType `json:"match_type"`
	Notes     string    `json:"notes,omitempty"`
}

// ComparisonResult aggregates the field comparisons for one purchase order.
type ComparisonResult struct {
	InvoiceID        string            `json:"invoice_id"`
	XMLOCReference   string            `json:"xml_oc_reference"`
	OCDocumentNumber string            `json:"oc_document_number,omitempty"`
	OCFileName       string            `json:"oc_file_name,omitempty"`
	Comparisons      []FieldComparison `json:"comparisons"`
	MatchedFields    int               `json:"matched_fields"`
	TotalFields      int               `json:"total_fields"`
	MatchPercentage  float64           `json:"match_percentage"`
	OverallMatch     bool              `json:"overall_match"`
	Conclusion       string            `json:"conclusion"`
	ConclusionType   string            `json:"conclusion_type"`
}
