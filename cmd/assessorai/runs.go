package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/store"
)

var (
	runsSource string
	runsLimit  int
)

func init() {
	runsCmd.Flags().StringVar(&runsSource, "source", "", "only show runs for this source slug")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to show")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent harvest runs from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ledger, err := store.NewLedger(cfg.Storage.LedgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()
		if err := ledger.Migrate(ctx); err != nil {
			return err
		}

		runs, err := ledger.ListRuns(ctx, runsSource, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-36s %-26s %-10s %9s %8s %8s  %s\n",
			"ID", "SOURCE", "STATUS", "COLLECTED", "DROPPED", "WRITTEN", "STARTED")
		for _, run := range runs {
			fmt.Fprintf(out, "%-36s %-26s %-10s %9d %8d %8d  %s\n",
				run.ID, run.Source, run.Status,
				run.Collected, run.Dropped, run.Written,
				run.StartedAt.Format("2006-01-02 15:04:05"))
			if run.Error != "" {
				fmt.Fprintf(out, "    error: %s\n", strings.SplitN(run.Error, "\n", 2)[0])
			}
		}
		return nil
	},
}
