package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/ingest"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest collaborator records from stdin",
		Long:  "Read {text, timestamp, role} records as JSONL on stdin and file them into the daily tier. Transcript parsing belongs to the ingestion collaborator, not here.",
		Run:   runIngest,
	}
	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	records, err := ingest.DecodeJSONL(os.Stdin)
	if err != nil {
		exitErr("ingest", err)
	}

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	res, err := ingest.New(a.store, a.quar).Ingest(cmd.Context(), records)
	if err != nil {
		exitErr("ingest", err)
	}
	printJSON(res)
}
