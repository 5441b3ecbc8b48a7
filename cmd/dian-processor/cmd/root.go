package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	apiKey       string
	ocrBaseURL   string
	ocrModel     string
)

var rootCmd = &cobra.Command{
	Use:   "dian-processor",
	Short: "Process Colombian DIAN electronic invoices (UBL 2.1)",
	Long: `DIAN Processor is a CLI tool for Colombian electronic invoicing.

Supports:
  - UBL 2.1 invoices, bare or wrapped in an AttachedDocument envelope
  - Invoice packages (ZIP): XML plus PDF attachments, including Anexo.zip
  - SAP-style validation rules (static R001-R005 plus dynamic JSON rules)
  - Reconciliation against an OCR-extracted Orden de Compra

Examples:
  # Process a single invoice XML
  dian-processor process factura.xml

  # Process a full invoice package with OC reconciliation
  dian-processor process paquete.zip --api-key <openrouter-key>

  # Validate with custom rules
  dian-processor validate factura.xml --rules reglas.json

  # Compare an invoice against its purchase order
  dian-processor compare factura.xml orden.pdf --api-key <key>`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, csv, table)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for OCR extraction (env: OCR_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&ocrBaseURL, "ocr-base-url", "", "OCR API base URL (env: OCR_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&ocrModel, "ocr-model", "", "OCR extraction model (env: OCR_MODEL)")

	// Load from environment variables if not set via flags
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if apiKey == "" {
		apiKey = os.Getenv("OCR_API_KEY")
	}
	if ocrBaseURL == "" {
		ocrBaseURL = os.Getenv("OCR_BASE_URL")
	}
	if ocrModel == "" {
		ocrModel = os.Getenv("OCR_MODEL")
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
