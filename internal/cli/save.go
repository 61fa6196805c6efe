package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/trigger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "save [text]",
		Short: "Save a fact into today's daily memory",
		Long:  "Save a fact into the daily tier. Text can be a positional arg or piped via stdin.",
		Run:   runSave,
	}

	cmd.Flags().String("category", "", "Category: decision, action, important, general")
	cmd.Flags().String("importance", "", "Importance: normal, high")
	cmd.Flags().Bool("auto", false, "Classify category/importance from trigger phrases")

	RootCmd.AddCommand(cmd)
}

func runSave(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetString("importance")
	auto, _ := cmd.Flags().GetBool("auto")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		exitErr("save", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	entry := model.Entry{
		Timestamp:  time.Now(),
		Category:   category,
		Importance: importance,
		Text:       text,
		Source:     model.SourceManual,
	}
	if auto {
		hit := trigger.Classify(text)
		entry.Text = hit.Content
		if entry.Category == "" {
			entry.Category = hit.Category
		}
		if entry.Importance == "" {
			entry.Importance = hit.Importance
		}
		if trigger.Detect(text) != nil {
			entry.Source = model.SourceTrigger
		}
	}
	if entry.Category == "" {
		entry.Category = model.CategoryGeneral
	}
	if entry.Importance == "" {
		entry.Importance = model.ImportanceNormal
	}

	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	if err := a.store.Append(entry); err != nil {
		exitErr("save", err)
	}

	printJSON(map[string]string{
		"date":       model.DateOf(entry.Timestamp),
		"category":   entry.Category,
		"importance": entry.Importance,
	})
}
