package consolidate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/store"
)

// Policy sets the per-tier retention windows for Prune.
type Policy struct {
	DailyRetentionDays  int `json:"daily_retention_days"`
	WeeklyRetentionDays int `json:"weekly_retention_days"`
}

// PruneResult reports what a prune pass removed.
type PruneResult struct {
	PrunedDaily  int `json:"pruned_daily"`
	PrunedWeekly int `json:"pruned_weekly"`
}

// Prune removes daily files older than the daily window and weekly
// summary files older than the weekly window, but never anything that
// has not been captured at the next tier. Pure cleanup: a second run
// prunes zero and is not an error.
func (e *Engine) Prune(ctx context.Context, policy Policy) (*PruneResult, error) {
	if policy.DailyRetentionDays <= 0 {
		policy.DailyRetentionDays = 7
	}
	if policy.WeeklyRetentionDays <= 0 {
		policy.WeeklyRetentionDays = 60
	}
	res := &PruneResult{}
	now := time.Now()

	dailyCutoff := model.DateOf(now.AddDate(0, 0, -policy.DailyRetentionDays))
	dates, err := e.store.ListDates("", dailyCutoff)
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	for _, date := range dates {
		if date == dailyCutoff {
			continue // window is exclusive of the cutoff day
		}
		err := e.DeleteDaily(ctx, date)
		if errors.Is(err, ErrNotCaptured) {
			continue // retention rule: uncaptured data outlives the window
		}
		if err != nil {
			return nil, fmt.Errorf("prune daily %s: %w", date, err)
		}
		res.PrunedDaily++
	}

	weeklyCutoff := model.DateOf(now.AddDate(0, 0, -policy.WeeklyRetentionDays))
	weeks, err := e.ListWeekly()
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	for _, weekStart := range weeks {
		if weekStart >= weeklyCutoff {
			continue
		}
		captured, err := e.weekCaptured(ctx, weekStart)
		if err != nil {
			return nil, fmt.Errorf("prune weekly %s: %w", weekStart, err)
		}
		if !captured {
			continue
		}
		if err := e.archiveWeekly(weekStart); err != nil {
			return nil, fmt.Errorf("prune weekly %s: %w", weekStart, err)
		}
		res.PrunedWeekly++
	}
	return res, nil
}

// weekCaptured reports whether the week's month has a committed monthly
// summary that includes this week.
func (e *Engine) weekCaptured(ctx context.Context, weekStart string) (bool, error) {
	if len(weekStart) < 7 {
		return false, nil
	}
	month, err := e.reg.GetMonthly(ctx, weekStart[:7])
	if err != nil {
		return false, err
	}
	return month != nil && contains(month.SourceWeeks, weekStart), nil
}

func (e *Engine) archiveWeekly(weekStart string) error {
	archive := filepath.Join(e.store.Dir(), "archive")
	if err := os.MkdirAll(archive, 0o755); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWrite, err)
	}
	src := e.weeklyPath(weekStart)
	if err := os.Rename(src, filepath.Join(archive, filepath.Base(src))); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWrite, err)
	}
	return nil
}
