package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rezonia/dian-processor/internal/model"
)

// ProcessResult holds the result of processing a single file
type ProcessResult struct {
	File        string                  `json:"file"`
	PackageID   string                  `json:"package_id,omitempty"`
	Invoice     *model.InvoiceDocument  `json:"invoice,omitempty"`
	Validation  *model.ValidationResult `json:"validation,omitempty"`
	Comparison  *model.ComparisonResult `json:"comparison,omitempty"`
	Attachments []string                `json:"attachments,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

func outputResults(results []*ProcessResult) error {
	var writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	switch outputFormat {
	case "json":
		return outputJSON(writer, results)
	case "table":
		return outputTable(writer, results)
	case "csv":
		return outputCSV(writer, results)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(w *os.File, results []*ProcessResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func outputTable(w *os.File, results []*ProcessResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tFACTURA\tNIT\tTOTAL\tRULES\tSUBMIT\tOC MATCH")
	fmt.Fprintln(tw, "----\t-------\t---\t-----\t-----\t------\t--------")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\n", r.File, r.Error)
			continue
		}

		if r.Invoice != nil {
			rulesCol := ""
			submitCol := ""
			if r.Validation != nil {
				rulesCol = fmt.Sprintf("%d/%d", r.Validation.Passed, len(r.Validation.Results))
				submitCol = "no"
				if r.Validation.CanSubmit {
					submitCol = "yes"
				}
			}
			matchCol := "-"
			if r.Comparison != nil {
				matchCol = fmt.Sprintf("%.1f%%", r.Comparison.MatchPercentage)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.File,
				r.Invoice.InvoiceNumber,
				r.Invoice.Supplier.CompanyID,
				r.Invoice.MonetaryTotal.PayableAmount.String(),
				rulesCol,
				submitCol,
				matchCol,
			)
		}
	}

	return tw.Flush()
}

func outputCSV(w *os.File, results []*ProcessResult) error {
	fmt.Fprintln(w, "file,invoice_number,cufe,issue_date,supplier_name,supplier_nit,customer_name,customer_nit,total_payable,currency,can_submit,match_percentage,error")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "%s,,,,,,,,,,,,%s\n", r.File, escapeCSV(r.Error))
			continue
		}

		if r.Invoice != nil {
			date := ""
			if !r.Invoice.IssueDate.IsZero() {
				date = r.Invoice.IssueDate.Format("2006-01-02")
			}
			canSubmit := ""
			if r.Validation != nil {
				canSubmit = fmt.Sprintf("%t", r.Validation.CanSubmit)
			}
			matchPct := ""
			if r.Comparison != nil {
				matchPct = fmt.Sprintf("%.1f", r.Comparison.MatchPercentage)
			}
			fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,\n",
				r.File,
				r.Invoice.InvoiceNumber,
				r.Invoice.CUFE,
				date,
				escapeCSV(r.Invoice.Supplier.RegistrationName),
				r.Invoice.Supplier.CompanyID,
				escapeCSV(r.Invoice.Customer.RegistrationName),
				r.Invoice.Customer.CompanyID,
				r.Invoice.MonetaryTotal.PayableAmount.String(),
				r.Invoice.CurrencyCode,
				canSubmit,
				matchPct,
			)
		}
	}

	return nil
}

func escapeCSV(s string) string {
	if strings.Contains(s, ",") || strings.Contains(s, "\"") || strings.Contains(s, "\n") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
