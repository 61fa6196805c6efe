package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate [name]",
		Short: "Validate a quarantined entity",
		Long:  "Move an entity from quarantine to the validated partition, assigning its target collection.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runValidate,
	}
	cmd.Flags().String("collection", "", "Target collection (default: inferred from keywords)")
	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	collection, _ := cmd.Flags().GetString("collection")

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	entity, err := a.quar.Validate(cmd.Context(), strings.Join(args, " "), collection)
	if err != nil {
		exitErr("validate", err)
	}
	printJSON(entity)
}
