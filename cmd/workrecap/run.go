package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var (
	runBatch   bool
	runNoBatch bool
)

var runCmd = &cobra.Command{
	Use:   "run [date]",
	Short: "Fetch, normalize, and summarize a date or range as a single pipeline",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		date, since, until, err := dateArgs(args, a.checkpoint, driven.CheckpointLastSummarize)
		if err != nil {
			return err
		}
		types := sourceTypes(flagTypes)
		batch := runBatch && !runNoBatch
		ctx := cmd.Context()

		if date != "" {
			path, err := a.orchestrator.RunDaily(ctx, date, types, nil)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		}

		outcomes, err := a.orchestrator.RunRange(ctx, since, until, flagForce, types, a.workers, batch, nil)
		if err != nil {
			return err
		}
		summary, anyFailed := summarizeOutcomes(outcomes)
		fmt.Println(summary)
		if anyFailed {
			cmd.SilenceUsage = true
			return fmt.Errorf("one or more dates failed")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runBatch, "batch", false, "use the provider's batch enrichment strategy for range operations")
	runCmd.Flags().BoolVar(&runNoBatch, "no-batch", false, "disable batch enrichment even if --batch was set")
}
