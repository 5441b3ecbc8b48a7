package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/processor"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice files against SAP submission rules",
	Long: `Run the validation rules over one or more invoices.

Static rules:
  R001  Supplier NIT registered in the SAP vendor master
  R002  CUFE present and well-formed
  R003  Totals consistent (subtotal + IVA - retenciones = total)
  R004  IVA at the expected 19% rate
  R005  Orden de Compra referenced

Dynamic rules from a JSON file are evaluated against the flattened
invoice fields.

Examples:
  dian-processor validate factura.xml
  dian-processor validate *.xml --rules reglas.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&rulesFile, "rules", "", "JSON file with dynamic validation rules")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	dynamic, err := loadDynamicRules(rulesFile)
	if err != nil {
		return err
	}

	pipeline := processor.NewPipeline()
	results := make([]*FileValidation, 0, len(files))
	allSubmittable := true

	for _, file := range files {
		result := validateFile(pipeline, file, dynamic)
		results = append(results, result)

		if result.Validation == nil || !result.Validation.CanSubmit {
			allSubmittable = false
		}
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		printValidationTable(results)
	}

	if !allSubmittable {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(pipeline *processor.Pipeline, filePath string, dynamic []model.ValidationRule) *FileValidation {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result := &FileValidation{File: filePath}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	if processor.DetectFormat(data) != processor.FormatXML {
		result.Error = "only XML validation is supported"
		return result
	}

	pipelineResult := pipeline.ProcessXMLBytes(ctx, data, dynamic)
	if pipelineResult.Error != nil {
		result.Error = fmt.Sprintf("parse error: %v", pipelineResult.Error)
		return result
	}

	result.Validation = pipelineResult.Validation
	return result
}

func printValidationTable(results []*FileValidation) {
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("✗ %s: %s\n", r.File, r.Error)
			continue
		}

		v := r.Validation
		if v.CanSubmit {
			fmt.Printf("✓ %s: APTA PARA SAP (%d/%d reglas)\n", r.File, v.Passed, len(v.Results))
		} else {
			fmt.Printf("✗ %s: BLOQUEADA (%d fallas bloqueantes)\n", r.File, v.BlockingFailures)
		}

		for _, res := range v.Results {
			marker := " "
			switch res.Status {
			case model.StatusPassed:
				marker = "✓"
			case model.StatusFailed:
				marker = "✗"
			case model.StatusSkipped:
				marker = "-"
			}
			fmt.Printf("  %s %s: %s\n", marker, res.RuleID, res.Message)
		}
	}
}

// FileValidation holds the validation outcome for a single file
type FileValidation struct {
	File       string                  `json:"file"`
	Validation *model.ValidationResult `json:"validation,omitempty"`
	Error      string                  `json:"error,omitempty"`
}
