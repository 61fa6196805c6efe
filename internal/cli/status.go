package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/model"
)

type statusReport struct {
	Dir                    string `json:"dir"`
	DailyFileCount         int    `json:"daily_file_count"`
	WeeklySummaryCount     int    `json:"weekly_summary_count"`
	MonthlySummaryCount    int    `json:"monthly_summary_count"`
	QuarantineCount        int    `json:"quarantine_count"`
	ValidatedCount         int    `json:"validated_count"`
	VectorBackendReachable bool   `json:"vector_backend_reachable"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show memory brain status",
		Run:   runStatus,
	}
	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()
	ctx := cmd.Context()

	report := statusReport{Dir: a.cfg.Dir}

	if dates, err := a.store.ListDates("", ""); err == nil {
		report.DailyFileCount = len(dates)
	}
	if weeks, err := a.engine.ListWeekly(); err == nil {
		report.WeeklySummaryCount = len(weeks)
	}
	if months, err := a.engine.ListMonthly(); err == nil {
		report.MonthlySummaryCount = len(months)
	}
	report.QuarantineCount, _ = a.reg.CountEntities(ctx, model.StatusQuarantined)
	report.ValidatedCount, _ = a.reg.CountEntities(ctx, model.StatusValidated)

	if a.index != nil {
		pctx, cancel := context.WithTimeout(ctx, a.cfg.VectorTimeout())
		report.VectorBackendReachable = a.index.Ping(pctx) == nil
		cancel()
	}

	printJSON(report)
}
