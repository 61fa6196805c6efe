package cli

import (
	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/consolidate"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune consolidated daily files and weekly summaries",
		Long:  "Remove daily files and weekly summaries past their retention windows. Never removes data that has not been captured at the next tier.",
		Run:   runPrune,
	}
	cmd.Flags().Int("daily-days", 0, "Daily retention window (default from config)")
	cmd.Flags().Int("weekly-days", 0, "Weekly retention window (default from config)")
	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	dailyDays, _ := cmd.Flags().GetInt("daily-days")
	weeklyDays, _ := cmd.Flags().GetInt("weekly-days")

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	policy := consolidate.Policy{
		DailyRetentionDays:  a.cfg.Retention.DailyDays,
		WeeklyRetentionDays: a.cfg.Retention.WeeklyDays,
	}
	if dailyDays > 0 {
		policy.DailyRetentionDays = dailyDays
	}
	if weeklyDays > 0 {
		policy.WeeklyRetentionDays = weeklyDays
	}

	res, err := a.engine.Prune(cmd.Context(), policy)
	if err != nil {
		exitErr("prune", err)
	}
	printJSON(res)
}
