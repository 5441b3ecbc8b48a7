package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/ocr"
	"github.com/rezonia/dian-processor/internal/processor"
)

var (
	outputFile string
	timeout    time.Duration
	rulesFile  string
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process invoice files and packages",
	Long: `Process one or more invoices and extract structured data.

Supported inputs:
  - XML: a UBL 2.1 invoice, bare or inside an AttachedDocument envelope
  - ZIP: an invoice package (XML plus PDF attachments)

For ZIP packages with an API key, the referenced Orden de Compra PDF is
OCR-extracted and reconciled against the invoice.

Examples:
  dian-processor process factura.xml
  dian-processor process paquete.zip --api-key <key>
  dian-processor process facturas/ -f table
  dian-processor process *.xml --rules reglas.json -o results.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	processCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Processing timeout per file")
	processCmd.Flags().StringVar(&rulesFile, "rules", "", "JSON file with dynamic validation rules")
}

func runProcess(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to process")
	}

	printVerbose("Found %d files to process\n", len(files))

	dynamic, err := loadDynamicRules(rulesFile)
	if err != nil {
		return err
	}

	pipeline := buildPipeline()

	results := make([]*ProcessResult, 0, len(files))
	for _, file := range files {
		printVerbose("Processing: %s\n", file)

		result := processFile(pipeline, file, dynamic)
		results = append(results, result)

		if result.Error != "" {
			printVerbose("  Error: %s\n", result.Error)
		} else if result.Validation != nil {
			printVerbose("  Rules: %d passed, %d blocking failures\n",
				result.Validation.Passed, result.Validation.BlockingFailures)
		}
	}

	return outputResults(results)
}

// buildPipeline creates the pipeline shared by all CLI commands, with OCR
// extraction enabled when an API key is present.
func buildPipeline() *processor.Pipeline {
	var opts []processor.Option

	if apiKey != "" {
		var clientOpts []ocr.ClientOption
		if ocrBaseURL != "" {
			clientOpts = append(clientOpts, ocr.WithBaseURL(ocrBaseURL))
		}
		if ocrModel != "" {
			clientOpts = append(clientOpts, ocr.WithDefaultModel(ocrModel))
		}

		client := ocr.NewClient(apiKey, clientOpts...)
		opts = append(opts, processor.WithOCREngine(ocr.NewVisionEngine(client)))
		printVerbose("OCR extraction enabled (model: %s)\n", ocrModel)
	}

	return processor.NewPipeline(opts...)
}

// loadDynamicRules reads dynamic rules from a JSON file. Accepts either a
// bare array or an object with a "rules" key.
func loadDynamicRules(path string) ([]model.ValidationRule, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rules []model.ValidationRule
	if err := json.Unmarshal(data, &rules); err == nil {
		return rules, nil
	}

	var wrapper struct {
		Rules []model.ValidationRule `json:"rules"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return wrapper.Rules, nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		// Check if it's a glob pattern
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			// Check if it's a directory
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}

			if info.IsDir() {
				err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
					if err != nil {
						return err
					}
					if !info.IsDir() && isSupportedFile(path) {
						files = append(files, path)
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
			} else {
				files = append(files, arg)
			}
		} else {
			for _, match := range matches {
				info, err := os.Stat(match)
				if err != nil {
					continue
				}
				if !info.IsDir() && isSupportedFile(match) {
					files = append(files, match)
				}
			}
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xml", ".zip":
		return true
	default:
		return false
	}
}

func processFile(pipeline *processor.Pipeline, filePath string, dynamic []model.ValidationRule) *ProcessResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := &ProcessResult{
		File: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	format := processor.DetectFormat(data)
	if format == processor.FormatUnknown {
		switch strings.ToLower(filepath.Ext(filePath)) {
		case ".xml":
			format = processor.FormatXML
		case ".zip":
			format = processor.FormatZIP
		}
	}

	var pipelineResult *processor.Result
	switch format {
	case processor.FormatXML:
		pipelineResult = pipeline.ProcessXMLBytes(ctx, data, dynamic)

	case processor.FormatZIP:
		pipelineResult = pipeline.ProcessPackageBytes(ctx, data, dynamic)

	default:
		result.Error = "unsupported file format"
		return result
	}

	if pipelineResult.Error != nil {
		result.Error = pipelineResult.Error.Error()
		return result
	}

	result.PackageID = pipelineResult.PackageID
	result.Invoice = pipelineResult.Invoice
	result.Validation = pipelineResult.Validation
	result.Comparison = pipelineResult.Comparison
	result.Attachments = pipelineResult.Attachments
	result.Warnings = pipelineResult.Warnings

	return result
}
