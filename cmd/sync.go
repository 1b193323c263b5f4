package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/crm"
	"github.com/sells-group/outbound-cli/internal/model"
)

var (
	syncInput     string
	syncThreshold int
	syncOutput    string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push qualified leads to HubSpot as contacts",
	Long: `Reads qualified leads from a results JSON file (as written by the
qualify command) and creates a HubSpot contact for each lead at or above the
score threshold. Without OUTBOUND_HUBSPOT_TOKEN the run is simulated.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(syncInput)
		if err != nil {
			return eris.Wrap(err, "sync: read input")
		}

		var leads []model.QualifiedLead
		if err := json.Unmarshal(data, &leads); err != nil {
			return eris.Wrap(err, "sync: parse input")
		}
		if len(leads) == 0 {
			return eris.New("sync: input contains no leads")
		}

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		threshold := syncThreshold
		if threshold == 0 {
			threshold = cfg.Qualify.ScoreThreshold
		}
		syncer := env.Syncer
		if threshold != cfg.Qualify.ScoreThreshold {
			syncer = crm.NewSyncer(env.HubSpot, threshold)
		}

		run := syncer.Sync(cmd.Context(), leads)

		zap.L().Info("sync: run complete",
			zap.String("run_id", run.ID),
			zap.Int("synced", run.Synced),
			zap.Int("skipped", run.Skipped),
			zap.Int("failed", run.Failed),
			zap.Bool("simulated", run.Simulated),
		)

		return writeJSONOutput(run, syncOutput)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncInput, "input", "", "path to qualified-leads JSON file (required)")
	syncCmd.Flags().IntVar(&syncThreshold, "threshold", 0, "score threshold override (default from config)")
	syncCmd.Flags().StringVar(&syncOutput, "output", "", "write run summary JSON to file (default: stdout)")
	_ = syncCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(syncCmd)
}
