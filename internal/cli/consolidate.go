package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/consolidate"
)

func init() {
	weekly := &cobra.Command{
		Use:   "consolidate-weekly [week-start]",
		Short: "Consolidate daily files into a weekly summary",
		Long:  "Distill the daily files of one Mon-Sun week into a weekly summary. Defaults to the current week.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runConsolidateWeekly,
	}
	monthly := &cobra.Command{
		Use:   "consolidate-monthly [month]",
		Short: "Consolidate weekly summaries into a monthly summary",
		Args:  cobra.MaximumNArgs(1),
		Run:   runConsolidateMonthly,
	}
	RootCmd.AddCommand(weekly, monthly)
}

func runConsolidateWeekly(cmd *cobra.Command, args []string) {
	week := consolidate.WeekStart(time.Now())
	if len(args) > 0 {
		week = args[0]
	}

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	summary, err := a.engine.ConsolidateWeekly(cmd.Context(), week)
	if errors.Is(err, consolidate.ErrNothingToConsolidate) {
		fmt.Printf("{\"skipped\": true, \"reason\": %q}\n", err.Error())
		return
	}
	if err != nil {
		exitErr("consolidate weekly", err)
	}
	printJSON(summary)
}

func runConsolidateMonthly(cmd *cobra.Command, args []string) {
	month := time.Now().Format("2006-01")
	if len(args) > 0 {
		month = args[0]
	}

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	summary, err := a.engine.ConsolidateMonthly(cmd.Context(), month)
	if errors.Is(err, consolidate.ErrNothingToConsolidate) {
		fmt.Printf("{\"skipped\": true, \"reason\": %q}\n", err.Error())
		return
	}
	if err != nil {
		exitErr("consolidate monthly", err)
	}
	printJSON(summary)
}
