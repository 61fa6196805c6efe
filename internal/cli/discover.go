package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "discover [text]",
		Short: "Discover entities in text and quarantine the new ones",
		Args:  cobra.MinimumNArgs(1),
		Run:   runDiscover,
	}
	RootCmd.AddCommand(cmd)
}

func runDiscover(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	res, err := a.quar.Discover(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		exitErr("discover", err)
	}
	printJSON(res)
}
