package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/internal/qualify"
	"github.com/sells-group/outbound-cli/internal/validate"
)

var (
	qualifyCSV       string
	qualifyXLSX      string
	qualifyLimit     int
	qualifyBatchSize int
	qualifyTimeout   time.Duration
	qualifyRetries   int
	qualifyFanOut    bool
	qualifyDryRun    bool
	qualifyOutput    string
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify",
	Short: "Score a lead list through the research/qualification pipeline",
	Long: `Reads a lead CSV or XLSX, validates rows, and runs each valid lead
through the two-step pipeline (company research, then scoring).

Examples:
  # Validate and preview without calling any API
  outbound-cli qualify --csv leads.csv --dry-run

  # Qualify in batches of 10, one retry per failed lead
  outbound-cli qualify --csv leads.csv --retries 1 --output results.json

  # Qualify everything concurrently (no per-item timeout)
  outbound-cli qualify --csv leads.csv --fan-out`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, err := loadRecords(qualifyCSV, qualifyXLSX)
		if err != nil {
			return eris.Wrap(err, "qualify: read leads")
		}

		leads, invalid, err := validate.Partition(records, cfg.Batch.MaxUploadRows)
		if err != nil {
			return eris.Wrap(err, "qualify: validate leads")
		}
		zap.L().Info("leads validated",
			zap.Int("rows", len(records)),
			zap.Int("valid", len(leads)),
			zap.Int("invalid", len(invalid)),
		)

		if qualifyLimit > 0 && qualifyLimit < len(leads) {
			leads = leads[:qualifyLimit]
		}

		if qualifyDryRun {
			return writeJSONOutput(map[string]any{
				"validLeads":   leads,
				"invalidLeads": invalid,
				"previewCount": len(records),
			}, qualifyOutput)
		}

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		engine, err := env.requireEngine()
		if err != nil {
			return err
		}

		results := runQualification(ctx, engine, leads)

		qualified := 0
		for _, r := range results {
			if r.Qualified {
				qualified++
			}
		}
		usage := engine.Usage()
		zap.L().Info("qualify: batch complete",
			zap.Int("leads", len(leads)),
			zap.Int("results", len(results)),
			zap.Int("qualified", qualified),
			zap.Int("dropped", len(leads)-len(results)),
			zap.Int64("input_tokens", usage.InputTokens),
			zap.Int64("output_tokens", usage.OutputTokens),
			zap.Float64("estimated_cost_usd", usage.EstimateCost(cfg.Anthropic.Model)),
		)

		return writeJSONOutput(results, qualifyOutput)
	},
}

func runQualification(ctx context.Context, engine *qualify.Engine, leads []model.Lead) []model.QualifiedLead {
	if qualifyFanOut {
		return engine.QualifyAll(ctx, leads)
	}

	size := qualifyBatchSize
	if size == 0 {
		size = cfg.Batch.Size
	}
	timeout := qualifyTimeout
	if timeout == 0 {
		timeout = cfg.Batch.ItemTimeout
	}
	return engine.QualifyBatches(ctx, leads, qualify.BatchOptions{
		Size:        size,
		ItemTimeout: timeout,
		Retries:     qualifyRetries,
	})
}

func init() {
	qualifyCmd.Flags().StringVar(&qualifyCSV, "csv", "", "path to lead CSV file")
	qualifyCmd.Flags().StringVar(&qualifyXLSX, "xlsx", "", "path to lead XLSX file")
	qualifyCmd.Flags().IntVar(&qualifyLimit, "limit", 0, "max leads to qualify (0 = all)")
	qualifyCmd.Flags().IntVar(&qualifyBatchSize, "batch-size", 0, "leads per batch (default from config)")
	qualifyCmd.Flags().DurationVar(&qualifyTimeout, "timeout", 0, "per-lead timeout (default from config)")
	qualifyCmd.Flags().IntVar(&qualifyRetries, "retries", 0, "extra attempts per failed lead")
	qualifyCmd.Flags().BoolVar(&qualifyFanOut, "fan-out", false, "qualify all leads concurrently instead of in batches")
	qualifyCmd.Flags().BoolVar(&qualifyDryRun, "dry-run", false, "validate and print leads, skip the pipeline")
	qualifyCmd.Flags().StringVar(&qualifyOutput, "output", "", "write results JSON to file (default: stdout)")
	rootCmd.AddCommand(qualifyCmd)
}
