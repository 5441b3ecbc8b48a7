package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/dian-processor/internal/model"
	"github.com/rezonia/dian-processor/internal/ocr"
)

var ocFieldsFile string

var compareCmd = &cobra.Command{
	Use:   "compare <invoice.xml> [orden.pdf]",
	Short: "Compare an invoice against its Orden de Compra",
	Long: `Reconcile an invoice XML against a purchase order.

The OC fields come either from OCR extraction of a PDF (requires an API
key) or from a JSON file with already-extracted fields.

Compared fields:
  - Número de Orden de Compra
  - NIT y nombre del proveedor
  - Total a pagar, subtotal y total IVA

Examples:
  dian-processor compare factura.xml orden.pdf --api-key <key>
  dian-processor compare factura.xml --oc-fields campos.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&ocFieldsFile, "oc-fields", "", "JSON file with OCR-extracted OC fields")
}

func runCompare(cmd *cobra.Command, args []string) error {
	xmlData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read invoice: %w", err)
	}

	ocFields, err := resolveOCFields(args)
	if err != nil {
		return err
	}

	pipeline := buildPipeline()
	comparison, err := pipeline.Compare(xmlData, ocFields)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(comparison)
	}

	printComparison(comparison)
	return nil
}

// resolveOCFields loads OC fields from the JSON file when given, otherwise
// OCR-extracts them from the PDF argument.
func resolveOCFields(args []string) (map[string]model.ExtractedField, error) {
	if ocFieldsFile != "" {
		data, err := os.ReadFile(ocFieldsFile)
		if err != nil {
			return nil, fmt.Errorf("read OC fields: %w", err)
		}
		var fields map[string]model.ExtractedField
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parse OC fields %s: %w", ocFieldsFile, err)
		}
		return fields, nil
	}

	if len(args) < 2 {
		return nil, fmt.Errorf("provide an OC PDF or --oc-fields")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OCR extraction requires --api-key (or OCR_API_KEY)")
	}

	pdfData, err := os.ReadFile(args[1])
	if err != nil {
		return nil, fmt.Errorf("read OC PDF: %w", err)
	}

	var clientOpts []ocr.ClientOption
	if ocrBaseURL != "" {
		clientOpts = append(clientOpts, ocr.WithBaseURL(ocrBaseURL))
	}
	if ocrModel != "" {
		clientOpts = append(clientOpts, ocr.WithDefaultModel(ocrModel))
	}
	engine := ocr.NewVisionEngine(ocr.NewClient(apiKey, clientOpts...))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	doc, err := engine.ProcessPDF(ctx, pdfData, args[1], ocr.DocumentOrdenCompra)
	if err != nil {
		return nil, err
	}
	printVerbose("Extracted %d fields from %s (%d pages)\n", len(doc.Fields), args[1], doc.PageCount)
	return doc.Fields, nil
}

func printComparison(c *model.ComparisonResult) {
	fmt.Printf("Factura %s vs OC %s\n", c.InvoiceID, c.OCDocumentNumber)
	for _, comp := range c.Comparisons {
		marker := "✗"
		if comp.Match {
			marker = "✓"
		}
		fmt.Printf("  %s %s: XML=%q OC=%q (%s)\n",
			marker, comp.Label, comp.XMLValue, comp.OCValue, comp.MatchType)
		if comp.Notes != "" {
			fmt.Printf("      %s\n", comp.Notes)
		}
	}
	fmt.Printf("Coincidencia: %d/%d (%.1f%%)\n", c.MatchedFields, c.TotalFields, c.MatchPercentage)
	fmt.Println(c.Conclusion)
}
