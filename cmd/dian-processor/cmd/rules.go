package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/dian-processor/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the validation rules",
	Long: `List the static validation rules, plus any dynamic rules from a
JSON file.

Examples:
  dian-processor rules
  dian-processor rules --rules reglas.json -f table`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesFile, "rules", "", "JSON file with dynamic validation rules")
}

func runRules(cmd *cobra.Command, args []string) error {
	dynamic, err := loadDynamicRules(rulesFile)
	if err != nil {
		return err
	}

	listed := rules.NewEngine().Rules(dynamic)

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(listed)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIPO\tNOMBRE\tDESCRIPCIÓN")
	for _, r := range listed {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Name, r.Description)
	}
	return tw.Flush()
}
