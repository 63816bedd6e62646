package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var (
	normEnrich   bool
	normNoEnrich bool
	normBatch    bool
	normNoBatch  bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [date]",
	Short: "Convert raw activity into canonical activities and daily stats",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		date, since, until, err := dateArgs(args, a.checkpoint, driven.CheckpointLastNormalize)
		if err != nil {
			return err
		}
		enrich := normEnrich && !normNoEnrich
		batch := normBatch && !normNoBatch
		ctx := cmd.Context()

		if date != "" {
			n, err := a.normalizer.Normalize(ctx, date, enrich)
			if err != nil {
				return err
			}
			fmt.Printf("%d activities\n", n)
			return nil
		}

		outcomes, err := a.normalizer.NormalizeRange(ctx, since, until, flagForce, enrich, a.workers, batch)
		if err != nil {
			return err
		}
		summary, anyFailed := summarizeOutcomes(outcomes)
		fmt.Println(summary)
		if anyFailed {
			cmd.SilenceUsage = true
			return fmt.Errorf("one or more dates failed to normalize")
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&normEnrich, "enrich", true, "enable LLM enrichment")
	normalizeCmd.Flags().BoolVar(&normNoEnrich, "no-enrich", false, "disable LLM enrichment")
	normalizeCmd.Flags().BoolVar(&normBatch, "batch", false, "use the provider's batch enrichment strategy for range operations")
	normalizeCmd.Flags().BoolVar(&normNoBatch, "no-batch", false, "disable batch enrichment even if --batch was set")
}
