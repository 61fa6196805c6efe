package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/query"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search memory across tiers",
		Long:  "Search daily files, weekly summaries, and the vector index; merged and ranked.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runQuery,
	}

	cmd.Flags().Bool("no-daily", false, "Skip the daily tier")
	cmd.Flags().Bool("no-weekly", false, "Skip the weekly tier")
	cmd.Flags().Bool("no-vectors", false, "Skip the vector tier")
	cmd.Flags().Int("days", 30, "Daily lookback window")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	noDaily, _ := cmd.Flags().GetBool("no-daily")
	noWeekly, _ := cmd.Flags().GetBool("no-weekly")
	noVectors, _ := cmd.Flags().GetBool("no-vectors")
	days, _ := cmd.Flags().GetInt("days")
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	resp, err := a.queryEngine().Query(cmd.Context(), strings.Join(args, " "), query.Options{
		Daily:   !noDaily,
		Weekly:  !noWeekly,
		Vectors: !noVectors,
		Days:    days,
		Limit:   limit,
	})
	if err != nil {
		exitErr("query", err)
	}
	printJSON(resp)
}
