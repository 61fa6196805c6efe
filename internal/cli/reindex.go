package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the vector index from the canonical store",
		Long:  "Re-upsert every daily entry and weekly summary item into the vector backend. The index is derived state; this is always safe to run.",
		Run:   runReindex,
	}
	RootCmd.AddCommand(cmd)
}

func runReindex(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open brain", err)
	}
	defer a.Close()

	if a.index == nil {
		exitErr("reindex", fmt.Errorf("no vector backend configured"))
	}
	ctx := cmd.Context()

	for _, coll := range a.cfg.CollectionNames() {
		if err := a.index.EnsureCollection(ctx, coll); err != nil {
			exitErr("reindex", err)
		}
	}

	indexed := 0
	dates, err := a.store.ListDates("", "")
	if err != nil {
		exitErr("reindex", err)
	}
	for _, date := range dates {
		entries, err := a.store.Read(date)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			exitErr("reindex", err)
		}
		for _, e := range entries {
			coll := a.cfg.CollectionFor(strings.Fields(strings.ToLower(e.Text)))
			if err := a.index.Upsert(ctx, coll, e.ID, e.Text); err != nil {
				exitErr("reindex", err)
			}
			indexed++
		}
	}

	// Weekly summary items land in the distilled collection.
	distilled := a.cfg.CollectionFor([]string{"distilled"})
	weeks, err := a.engine.ListWeekly()
	if err != nil {
		exitErr("reindex", err)
	}
	for _, weekStart := range weeks {
		summary, err := a.engine.ReadWeekly(weekStart)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			exitErr("reindex", err)
		}
		for si, sec := range [][]string{summary.Decisions, summary.Preferences, summary.ActionItems} {
			for i, item := range sec {
				id := fmt.Sprintf("week-%s-%d-%d", weekStart, si, i)
				if err := a.index.Upsert(ctx, distilled, id, item); err != nil {
					exitErr("reindex", err)
				}
				indexed++
			}
		}
	}

	printJSON(map[string]int{"indexed": indexed})
}
