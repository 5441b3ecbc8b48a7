// Package ocr extracts named fields from purchase-order and compliance PDFs.
// The extraction result feeds the XML-vs-OC comparator.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/rezonia/dian-processor/internal/model"
)

// DocumentType selects the extraction profile for a PDF.
type DocumentType string

const (
	DocumentOrdenCompra  DocumentType = "orden_compra"
	DocumentCumplimiento DocumentType = "formato_cumplimiento"
)

// Document is the result of processing one PDF.
type Document struct {
	DocumentType     DocumentType                    `json:"document_type"`
	FileName         string                          `json:"file_name"`
	Fields           map[string]model.ExtractedField `json:"extracted_fields"`
	ConfidenceScore  float64                         `json:"confidence_score"`
	PageCount        int                             `json:"page_count"`
	ProcessingTimeMs int64                           `json:"processing_time_ms"`
}

// Engine processes PDF documents into extracted fields.
type Engine interface {
	ProcessPDF(ctx context.Context, content []byte, filename string, docType DocumentType) (*Document, error)
}

// VisionEngine implements Engine on a multimodal chat model.
type VisionEngine struct {
	client            *Client
	ordenCompraModel  string
	cumplimientoModel string
	now               func() time.Time
}

// EngineOption configures a VisionEngine.
type EngineOption func(*VisionEngine)

// WithOrdenCompraModel overrides the model used for purchase orders.
func WithOrdenCompraModel(model string) EngineOption {
	return func(e *VisionEngine) {
		e.ordenCompraModel = model
	}
}

// WithCumplimientoModel overrides the model used for compliance documents.
func WithCumplimientoModel(model string) EngineOption {
	return func(e *VisionEngine) {
		e.cumplimientoModel = model
	}
}

// NewVisionEngine creates an engine backed by the given client.
func NewVisionEngine(client *Client, opts ...EngineOption) *VisionEngine {
	e := &VisionEngine{
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *VisionEngine) modelFor(docType DocumentType) string {
	if docType == DocumentOrdenCompra {
		return e.ordenCompraModel
	}
	return e.cumplimientoModel
}

func (e *VisionEngine) promptFor(docType DocumentType) string {
	if docType == DocumentOrdenCompra {
		return UserPromptOrdenCompra
	}
	return UserPromptFormatoCumplimiento
}

// ProcessPDF validates the PDF, sends it for extraction, and parses the
// response into named fields.
func (e *VisionEngine) ProcessPDF(ctx context.Context, content []byte, filename string, docType DocumentType) (*Document, error) {
	start := e.now()

	pageCount, err := api.PageCount(bytes.NewReader(content), nil)
	if err != nil {
		return nil, model.NewExtractionError("pdf", fmt.Sprintf("invalid PDF %s", filename), err)
	}

	response, err := e.client.ChatWithDocument(ctx, e.modelFor(docType),
		SystemPromptDocumentExtractor, e.promptFor(docType), content, "application/pdf")
	if err != nil {
		return nil, model.NewExtractionError("vision", fmt.Sprintf("extract %s", filename), err)
	}

	fields, err := ParseExtraction(ExtractJSON(response))
	if err != nil {
		return nil, model.NewExtractionError("vision", fmt.Sprintf("parse extraction for %s", filename), err)
	}

	return &Document{
		DocumentType:     docType,
		FileName:         filename,
		Fields:           fields,
		ConfidenceScore:  averageConfidence(fields),
		PageCount:        pageCount,
		ProcessingTimeMs: e.now().Sub(start).Milliseconds(),
	}, nil
}

var _ Engine = (*VisionEngine)(nil)

// rawField tolerates the value shapes models actually return.
type rawField struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
	Type       string  `json:"type"`
}

type extractionPayload struct {
	Fields map[string]rawField `json:"fields"`
}

// ParseExtraction decodes the extraction JSON into named fields. Non-string
// values are stringified; a null or absent value becomes "N/A" with zero
// confidence.
func ParseExtraction(jsonText string) (map[string]model.ExtractedField, error) {
	var payload extractionPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, fmt.Errorf("decode extraction JSON: %w", err)
	}
	if payload.Fields == nil {
		return nil, fmt.Errorf("extraction JSON has no fields object")
	}

	out := make(map[string]model.ExtractedField, len(payload.Fields))
	for name, raw := range payload.Fields {
		value, ok := stringifyValue(raw.Value)
		field := model.ExtractedField{
			Value:      value,
			Confidence: raw.Confidence,
			Type:       raw.Type,
		}
		if !ok {
			field.Value = "N/A"
			field.Confidence = 0
		}
		out[name] = field
	}
	return out, nil
}

func stringifyValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case nil:
		return "", false
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}

func averageConfidence(fields map[string]model.ExtractedField) float64 {
	var sum float64
	var count int
	for _, f := range fields {
		if f.Value != "" && f.Value != "N/A" {
			sum += f.Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
