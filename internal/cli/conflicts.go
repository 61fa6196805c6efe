package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/conflict"
)

func init() {
	cmd := &cobra.Command{
		Use:   "conflicts [topic]",
		Short: "Detect contradictory memories about a topic",
		Long:  "Scan stored memories for contradictory statements about a topic. Heuristic and best-effort; an empty result means no conflict was detected, not that none exists.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runConflicts,
	}
	RootCmd.AddCommand(cmd)
}

func runConflicts(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	candidates, err := a.detector().Detect(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		exitErr("conflicts", err)
	}
	if candidates == nil {
		candidates = []conflict.Candidate{}
	}
	printJSON(candidates)
}
