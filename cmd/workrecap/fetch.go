package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [date]",
	Short: "Search and persist raw PR/commit/issue activity for a date or range",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		date, since, until, err := dateArgs(args, a.checkpoint, driven.CheckpointLastFetch)
		if err != nil {
			return err
		}
		types := sourceTypes(flagTypes)
		ctx := cmd.Context()

		if date != "" {
			paths, err := a.fetcher.Fetch(ctx, date, types)
			if err != nil {
				return err
			}
			for kind, path := range paths {
				fmt.Printf("%s: %s\n", kind, path)
			}
			return nil
		}

		outcomes, err := a.fetcher.FetchRange(ctx, since, until, types, flagForce, nil, a.workers)
		if err != nil {
			return err
		}
		summary, anyFailed := summarizeOutcomes(outcomes)
		fmt.Println(summary)
		if anyFailed {
			cmd.SilenceUsage = true
			return fmt.Errorf("one or more dates failed to fetch")
		}
		return nil
	},
}
