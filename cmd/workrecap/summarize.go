package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Render daily, weekly, monthly, or yearly Markdown summaries",
}

var summarizeDailyCmd = &cobra.Command{
	Use:   "daily [date]",
	Short: "Render a single day's Markdown summary, or a range of days",
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
		ctx := cmd.Context()

		if date != "" {
			path, err := a.summarizer.Daily(ctx, date)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		}

		outcomes, err := a.summarizer.DailyRange(ctx, since, until, flagForce, a.workers)
		if err != nil {
			return err
		}
		summary, anyFailed := summarizeOutcomes(outcomes)
		fmt.Println(summary)
		if anyFailed {
			cmd.SilenceUsage = true
			return fmt.Errorf("one or more dates failed to summarize")
		}
		return nil
	},
}

var summarizeWeeklyCmd = &cobra.Command{
	Use:   "weekly [YYYY-WW]",
	Short: "Roll the given ISO week's daily summaries into a weekly summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var year, week int
		if len(args) == 1 {
			var err error
			year, week, err = parseYearSuffix(args[0])
			if err != nil {
				return fmt.Errorf("invalid week %q, expected YYYY-WW: %w", args[0], err)
			}
		} else {
			year, week = time.Now().UTC().ISOWeek()
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		path, err := a.summarizer.Weekly(cmd.Context(), year, week)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var summarizeMonthlyCmd = &cobra.Command{
	Use:   "monthly [YYYY-MM]",
	Short: "Roll the given month's weekly summaries into a monthly summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var year, month int
		if len(args) == 1 {
			var err error
			year, month, err = parseYearSuffix(args[0])
			if err != nil {
				return fmt.Errorf("invalid month %q, expected YYYY-MM: %w", args[0], err)
			}
		} else {
			now := time.Now().UTC()
			year, month = now.Year(), int(now.Month())
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		path, err := a.summarizer.Monthly(cmd.Context(), year, month)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var summarizeYearlyCmd = &cobra.Command{
	Use:   "yearly [YYYY]",
	Short: "Roll the given year's monthly summaries into a yearly retrospective",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year := time.Now().UTC().Year()
		if len(args) == 1 {
			parsed, err := parseYear(args[0])
			if err != nil {
				return err
			}
			year = parsed
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		path, err := a.summarizer.Yearly(cmd.Context(), year)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func parseYear(s string) (int, error) {
	var year int
	if _, err := fmt.Sscanf(s, "%d", &year); err != nil || year == 0 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, nil
}

func init() {
	summarizeCmd.AddCommand(summarizeDailyCmd, summarizeWeeklyCmd, summarizeMonthlyCmd, summarizeYearlyCmd)
}
