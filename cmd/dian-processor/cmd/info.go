package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/dian-processor/internal/archive"
	"github.com/rezonia/dian-processor/internal/parser/ubl"
	"github.com/rezonia/dian-processor/internal/processor"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about invoice files",
	Long: `Display information about invoice files without full processing.

Shows:
  - Detected file format (XML, ZIP package, PDF)
  - Whether an XML carries an AttachedDocument envelope
  - Package contents (XML name, attachments, nested Anexo.zip)

Examples:
  dian-processor info factura.xml
  dian-processor info *.zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	for _, file := range files {
		printFileInfo(file)
		fmt.Println()
	}

	return nil
}

func printFileInfo(filePath string) {
	fmt.Printf("File: %s\n", filePath)

	info, err := os.Stat(filePath)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}

	fmt.Printf("  Size: %d bytes\n", info.Size())
	fmt.Printf("  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("  Error reading file: %v\n", err)
		return
	}

	format := processor.DetectFormat(data)
	fmt.Printf("  Format: %s\n", formatName(format))

	switch format {
	case processor.FormatXML:
		printXMLInfo(data)
	case processor.FormatZIP:
		printPackageInfo(data)
	}
}

func printXMLInfo(data []byte) {
	content := string(data)

	if ubl.IsAttachedDocument(content) {
		fmt.Println("  Envelope: AttachedDocument")
	} else {
		fmt.Println("  Envelope: none (bare invoice)")
	}

	if strings.Contains(content, "CUFE") {
		fmt.Println("  CUFE: referenced")
	}

	preview := getPreview(content, 200)
	if preview != "" {
		fmt.Printf("  Preview: %s\n", preview)
	}
}

func printPackageInfo(data []byte) {
	pkg, err := archive.Open(data)
	if err != nil {
		fmt.Printf("  Error opening package: %v\n", err)
		return
	}

	fmt.Printf("  Invoice XML: %s\n", pkg.XMLName)
	if pkg.NestedZipName != "" {
		fmt.Printf("  Nested ZIP: %s\n", pkg.NestedZipName)
	}
	fmt.Printf("  Attachments: %d\n", len(pkg.Attachments))
	for _, att := range pkg.Attachments {
		fmt.Printf("    - %s (%d bytes, %s)\n", att.Name, len(att.Content), att.Source)
	}
}

func formatName(f processor.Format) string {
	switch f {
	case processor.FormatXML:
		return "XML (UBL invoice)"
	case processor.FormatZIP:
		return "ZIP (invoice package)"
	case processor.FormatPDF:
		return "PDF"
	default:
		return "Unknown"
	}
}

func getPreview(content string, maxLen int) string {
	// Remove XML declaration
	if idx := strings.Index(content, "?>"); idx >= 0 {
		content = content[idx+2:]
	}

	// Clean up whitespace
	content = strings.TrimSpace(content)
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\t", " ")

	// Collapse multiple spaces
	for strings.Contains(content, "  ") {
		content = strings.ReplaceAll(content, "  ", " ")
	}

	if len(content) > maxLen {
		content = content[:maxLen] + "..."
	}

	return content
}
