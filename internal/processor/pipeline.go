// Package processor wires the processing pipeline: unpack the invoice
// package, parse the UBL invoice, flatten it, run validation rules, and
// reconcile against the OCR-extracted purchase order.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/rezonia/dian-processor/internal/archive"
	"github.com/rezonia/dian-processor/internal/blobstore"
	"github.com/rezonia/dian-processor/internal/flatten"
	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/ocr"
	"github.com/rezonia/dian-processor/internal/parser/ubl"
	"github.com/rezonia/dian-processor/internal/reconcile"
	"github.com/rezonia/dian-processor/internal/rules"
	"github.com/rezonia/dian-processor/pkg/logger"
)

// Format identifies the detected input format
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatPDF
	FormatZIP
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatPDF:
		return "pdf"
	case FormatZIP:
		return "zip"
	default:
		return "unknown"
	}
}

// DetectFormat sniffs the input format from magic bytes.
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return FormatZIP
	case bytes.HasPrefix(data, []byte("%PDF")):
		return FormatPDF
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return FormatXML
	}
	return FormatUnknown
}

// Result is the outcome of one pipeline run. Error is set when processing
// could not produce an invoice; partial collaborator failures surface as
// warnings instead.
type Result struct {
	PackageID   string
	Invoice     *model.InvoiceDocument
	Fields      map[string]model.Value
	Validation  *model.ValidationResult
	Comparison  *model.ComparisonResult
	XMLFileName string
	Attachments []string
	Warnings    []string
	Error       error
}

// Pipeline orchestrates parsing, validation and reconciliation.
type Pipeline struct {
	parser     *ubl.Parser
	engine     *rules.Engine
	comparator *reconcile.Comparator
	ocrEngine  ocr.Engine
	store      blobstore.Store
	log        *logger.Logger
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithStore sets the blob store used to fetch invoice packages by path.
func WithStore(store blobstore.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithOCREngine sets the engine used to extract purchase-order fields from
// PDF attachments.
func WithOCREngine(engine ocr.Engine) Option {
	return func(p *Pipeline) {
		p.ocrEngine = engine
	}
}

// WithRulesEngine overrides the validation engine.
func WithRulesEngine(engine *rules.Engine) Option {
	return func(p *Pipeline) {
		p.engine = engine
	}
}

// WithComparator overrides the XML-vs-OC comparator.
func WithComparator(c *reconcile.Comparator) Option {
	return func(p *Pipeline) {
		p.comparator = c
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates a pipeline with default collaborators. Without a store
// only the byte-level entry points work; without an OCR engine reconciliation
// is skipped.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:     ubl.NewParser(),
		engine:     rules.NewEngine(),
		comparator: reconcile.NewComparator(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessXML parses, flattens and validates a bare UBL invoice.
func (p *Pipeline) ProcessXML(ctx context.Context, r io.Reader, dynamic []model.ValidationRule) *Result {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Result{Error: fmt.Errorf("read input: %w", err)}
	}
	return p.ProcessXMLBytes(ctx, data, dynamic)
}

// ProcessXMLBytes is ProcessXML for in-memory content.
func (p *Pipeline) ProcessXMLBytes(_ context.Context, data []byte, dynamic []model.ValidationRule) *Result {
	result := &Result{PackageID: uuid.NewString()}

	invoice, err := p.parser.Parse(data)
	if err != nil {
		result.Error = err
		return result
	}
	result.Invoice = invoice
	result.Fields = flatten.Document(invoice)

	validation := p.engine.Validate(invoice.InvoiceNumber, invoice, dynamic, result.Fields)
	result.Validation = &validation

	p.log.Info().
		Str("invoice", invoice.InvoiceNumber).
		Int("blocking_failures", validation.BlockingFailures).
		Bool("can_submit", validation.CanSubmit).
		Msg("invoice validated")

	return result
}

// ProcessPackage downloads an invoice package from the blob store and runs
// the full pipeline on it.
func (p *Pipeline) ProcessPackage(ctx context.Context, path string, dynamic []model.ValidationRule) *Result {
	if p.store == nil {
		return &Result{Error: fmt.Errorf("no blob store configured")}
	}
	content, err := p.store.Download(ctx, path)
	if err != nil {
		return &Result{Error: fmt.Errorf("download package %s: %w", path, err)}
	}
	return p.ProcessPackageBytes(ctx, content, dynamic)
}

// ProcessPackageBytes runs the full pipeline on an in-memory invoice
// package: extraction, parsing, attachment matching, validation, and (when an
// OCR engine is configured) reconciliation against the purchase order.
func (p *Pipeline) ProcessPackageBytes(ctx context.Context, content []byte, dynamic []model.ValidationRule) *Result {
	result := &Result{PackageID: uuid.NewString()}

	pkg, err := archive.Open(content)
	if err != nil {
		result.Error = err
		return result
	}
	if pkg.XMLContent == nil {
		result.Error = fmt.Errorf("package has no XML invoice")
		return result
	}
	result.XMLFileName = pkg.XMLName
	for _, att := range pkg.Attachments {
		result.Attachments = append(result.Attachments, att.Name)
	}

	invoice, err := p.parser.Parse(pkg.XMLContent)
	if err != nil {
		result.Error = err
		return result
	}
	archive.MatchReferences(invoice.AttachmentReferences, pkg)
	result.Invoice = invoice
	result.Fields = flatten.Document(invoice)

	validation := p.engine.Validate(invoice.InvoiceNumber, invoice, dynamic, result.Fields)
	result.Validation = &validation

	p.log.Info().
		Str("invoice", invoice.InvoiceNumber).
		Str("xml_file", pkg.XMLName).
		Int("attachments", len(pkg.Attachments)).
		Bool("can_submit", validation.CanSubmit).
		Msg("package processed")

	p.reconcilePackage(ctx, result, pkg)
	return result
}

// Compare reconciles a parsed invoice against already-extracted OC fields.
func (p *Pipeline) Compare(data []byte, ocFields map[string]model.ExtractedField) (*model.ComparisonResult, error) {
	invoice, err := p.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	comparison := p.comparator.Compare(invoice.InvoiceNumber, invoice, ocFields)
	return &comparison, nil
}

// Rules lists the rules a validation run would evaluate.
func (p *Pipeline) Rules(dynamic []model.ValidationRule) []model.ValidationRule {
	return p.engine.Rules(dynamic)
}

// reconcilePackage extracts the purchase-order attachment and compares it
// with the invoice. OCR failures downgrade to warnings.
func (p *Pipeline) reconcilePackage(ctx context.Context, result *Result, pkg *archive.Package) {
	if p.ocrEngine == nil || len(pkg.Attachments) == 0 {
		return
	}

	attachment := p.purchaseOrderAttachment(result.Invoice, pkg)
	if attachment == nil {
		return
	}

	doc, err := p.ocrEngine.ProcessPDF(ctx, attachment.Content, attachment.Name, ocr.DocumentOrdenCompra)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("OCR de %s falló: %v", attachment.Name, err))
		p.log.Warn().Err(err).Str("attachment", attachment.Name).Msg("OCR extraction failed")
		return
	}

	comparison := p.comparator.Compare(result.Invoice.InvoiceNumber, result.Invoice, doc.Fields)
	comparison.OCFileName = attachment.Name
	result.Comparison = &comparison

	p.log.Info().
		Str("oc_file", attachment.Name).
		Float64("match_percentage", comparison.MatchPercentage).
		Msg("invoice reconciled against purchase order")
}

// purchaseOrderAttachment picks the PDF that looks like the referenced
// purchase order: a filename match on an orden_compra reference wins, then
// any filename mentioning "oc" or "orden", then the first attachment.
func (p *Pipeline) purchaseOrderAttachment(invoice *model.InvoiceDocument, pkg *archive.Package) *archive.Attachment {
	for _, ref := range invoice.AttachmentReferences {
		if ref.ReferenceType == model.ReferenceOrdenCompra && ref.FoundInArchive {
			if att := pkg.Attachment(ref.MatchedFilename); att != nil {
				return att
			}
		}
	}
	for i := range pkg.Attachments {
		lower := strings.ToLower(pkg.Attachments[i].Name)
		if strings.Contains(lower, "oc") || strings.Contains(lower, "orden") {
			return &pkg.Attachments[i]
		}
	}
	if len(pkg.Attachments) > 0 {
		return &pkg.Attachments[0]
	}
	return nil
}
