package dianlib

import (
	"context"
	"io"

	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/ocr"
	"github.com/rezonia/dian-processor/internal/processor"
	"github.com/rezonia/dian-processor/internal/rules"
)

// Options configures the processor
type Options struct {
	// OCR configuration for purchase-order reconciliation
	OCRAPIKey  string // API key (env: OCR_API_KEY)
	OCRBaseURL string // Base URL (env: OCR_BASE_URL)
	OCRModel   string // Extraction model (env: OCR_MODEL)
	EnableOCR  bool

	// ValidNITs overrides the SAP vendor master registry used by rule R001.
	ValidNITs []string
}

// DefaultOptions returns default processor options
func DefaultOptions() Options {
	return Options{
		EnableOCR:  true,
		OCRBaseURL: "https://openrouter.ai/api/v1",
		OCRModel:   "openai/gpt-4o-mini",
	}
}

// ExtractionResult is the public result of one processing run
type ExtractionResult struct {
	PackageID   string
	Invoice     *model.InvoiceDocument
	Fields      map[string]model.Value
	Validation  *model.ValidationResult
	Comparison  *model.ComparisonResult
	Attachments []string
	Warnings    []string
}

// Processor wraps the internal pipeline behind a stable API
type Processor struct {
	pipeline *processor.Pipeline
	options  Options
}

// NewProcessor creates an invoice processor with the given options
func NewProcessor(opts Options) *Processor {
	var pipelineOpts []processor.Option

	if opts.EnableOCR && opts.OCRAPIKey != "" {
		var clientOpts []ocr.ClientOption
		if opts.OCRBaseURL != "" {
			clientOpts = append(clientOpts, ocr.WithBaseURL(opts.OCRBaseURL))
		}
		if opts.OCRModel != "" {
			clientOpts = append(clientOpts, ocr.WithDefaultModel(opts.OCRModel))
		}
		client := ocr.NewClient(opts.OCRAPIKey, clientOpts...)
		pipelineOpts = append(pipelineOpts, processor.WithOCREngine(ocr.NewVisionEngine(client)))
	}

	if len(opts.ValidNITs) > 0 {
		engine := rules.NewEngine(rules.WithValidNITs(opts.ValidNITs))
		pipelineOpts = append(pipelineOpts, processor.WithRulesEngine(engine))
	}

	return &Processor{
		pipeline: processor.NewPipeline(pipelineOpts...),
		options:  opts,
	}
}

// NewDefaultProcessor creates a processor with default options
func NewDefaultProcessor() *Processor {
	return NewProcessor(DefaultOptions())
}

// Process auto-detects the input format (XML invoice or ZIP package) and
// runs the pipeline.
func (p *Processor) Process(ctx context.Context, r io.Reader) (*ExtractionResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &model.ParseError{Message: "failed to read input", Cause: err}
	}

	var result *processor.Result
	switch processor.DetectFormat(data) {
	case processor.FormatXML:
		result = p.pipeline.ProcessXMLBytes(ctx, data, nil)
	case processor.FormatZIP:
		result = p.pipeline.ProcessPackageBytes(ctx, data, nil)
	default:
		return nil, &model.ParseError{Message: "unsupported file format"}
	}

	return toExtractionResult(result)
}

// ProcessXML processes a UBL invoice XML directly
func (p *Processor) ProcessXML(ctx context.Context, r io.Reader) (*ExtractionResult, error) {
	result := p.pipeline.ProcessXML(ctx, r, nil)
	return toExtractionResult(result)
}

// ProcessPackage processes an invoice package ZIP directly
func (p *Processor) ProcessPackage(ctx context.Context, r io.Reader) (*ExtractionResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &model.ParseError{Message: "failed to read input", Cause: err}
	}
	result := p.pipeline.ProcessPackageBytes(ctx, data, nil)
	return toExtractionResult(result)
}

// Validate parses an invoice XML and runs static plus dynamic rules
func (p *Processor) Validate(ctx context.Context, r io.Reader, dynamic []ValidationRule) (*ValidationResult, error) {
	result := p.pipeline.ProcessXML(ctx, r, dynamic)
	if result.Error != nil {
		return nil, result.Error
	}
	return result.Validation, nil
}

// Compare reconciles an invoice XML against already-extracted OC fields
func (p *Processor) Compare(xmlData []byte, ocFields map[string]ExtractedField) (*ComparisonResult, error) {
	return p.pipeline.Compare(xmlData, ocFields)
}

// Rules lists the static rules plus the given dynamic rules
func (p *Processor) Rules(dynamic []ValidationRule) []ValidationRule {
	return p.pipeline.Rules(dynamic)
}

// ProcessBatch processes multiple inputs concurrently
func (p *Processor) ProcessBatch(ctx context.Context, inputs []io.Reader) ([]*ExtractionResult, error) {
	results := make([]*ExtractionResult, len(inputs))
	errCh := make(chan error, len(inputs))

	for i, input := range inputs {
		go func(idx int, r io.Reader) {
			result, err := p.Process(ctx, r)
			if err != nil {
				errCh <- err
				return
			}
			results[idx] = result
			errCh <- nil
		}(i, input)
	}

	// Wait for all goroutines
	var firstErr error
	for range inputs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}

func toExtractionResult(result *processor.Result) (*ExtractionResult, error) {
	if result.Error != nil {
		return nil, result.Error
	}
	return &ExtractionResult{
		PackageID:   result.PackageID,
		Invoice:     result.Invoice,
		Fields:      result.Fields,
		Validation:  result.Validation,
		Comparison:  result.Comparison,
		Attachments: result.Attachments,
		Warnings:    result.Warnings,
	}, nil
}
