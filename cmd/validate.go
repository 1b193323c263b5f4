package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/validate"
)

var (
	validateCSV    string
	validateXLSX   string
	validateOutput string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a lead file without qualifying",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(validateCSV, validateXLSX)
		if err != nil {
			return eris.Wrap(err, "validate: read leads")
		}

		valid, invalid, err := validate.Partition(records, cfg.Batch.MaxUploadRows)
		if err != nil {
			return eris.Wrap(err, "validate: partition leads")
		}

		zap.L().Info("validation complete",
			zap.Int("rows", len(records)),
			zap.Int("valid", len(valid)),
			zap.Int("invalid", len(invalid)),
		)

		return writeJSONOutput(map[string]any{
			"validLeads":   valid,
			"invalidLeads": invalid,
			"previewCount": len(records),
		}, validateOutput)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateCSV, "csv", "", "path to lead CSV file")
	validateCmd.Flags().StringVar(&validateXLSX, "xlsx", "", "path to lead XLSX file")
	validateCmd.Flags().StringVar(&validateOutput, "output", "", "write report JSON to file (default: stdout)")
	rootCmd.AddCommand(validateCmd)
}
