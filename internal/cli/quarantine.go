package cli

import (
	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "List entities awaiting validation",
		Run:   runQuarantine,
	}
	cmd.Flags().Bool("validated", false, "List validated entities instead")
	RootCmd.AddCommand(cmd)
}

func runQuarantine(cmd *cobra.Command, args []string) {
	validated, _ := cmd.Flags().GetBool("validated")
	status := model.StatusQuarantined
	if validated {
		status = model.StatusValidated
	}

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	entities, err := a.quar.List(cmd.Context(), status)
	if err != nil {
		exitErr("quarantine list", err)
	}
	if entities == nil {
		entities = []model.Entity{}
	}
	printJSON(entities)
}
