// Package consolidate rolls the daily tier into weekly summaries, weekly
// summaries into monthly summaries, and prunes captured data.
//
// Per period the state machine is absent -> committed: the summary file
// is written atomically and the commit row is recorded only afterwards,
// so a partially failed run leaves nothing observable and a re-run is
// always safe. No daily content is ever destroyed before its week is
// committed, and no weekly file before its month is.
package consolidate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/openclaw/memory-brain/internal/flock"
	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/registry"
	"github.com/openclaw/memory-brain/internal/store"
)

var (
	// ErrNothingToConsolidate means the period has no source data. It
	// is a skip condition, not a failure.
	ErrNothingToConsolidate = errors.New("nothing to consolidate")

	// ErrNotCaptured refuses destruction of data that has not been
	// captured at the next tier.
	ErrNotCaptured = errors.New("not captured by a committed summary")
)

// Engine drives consolidation and retention over a store and registry.
type Engine struct {
	store *store.Store
	reg   *registry.Registry
}

// New creates a consolidation engine.
func New(s *store.Store, reg *registry.Registry) *Engine {
	return &Engine{store: s, reg: reg}
}

// WeekStart returns the Monday of t's week as YYYY-MM-DD.
func WeekStart(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return model.DateOf(t.AddDate(0, 0, -offset))
}

func (e *Engine) distilledDir() string { return filepath.Join(e.store.Dir(), "distilled") }

func (e *Engine) weeklyPath(weekStart string) string {
	return filepath.Join(e.distilledDir(), "Week_"+weekStart+".md")
}

func (e *Engine) monthlyPath(month string) string {
	return filepath.Join(e.distilledDir(), "Month_"+month+".md")
}

// ConsolidateWeekly distills the Mon-Sun week starting at weekStart
// (YYYY-MM-DD, normalized to its Monday) into a weekly summary,
// overwriting any prior summary for the same week.
func (e *Engine) ConsolidateWeekly(ctx context.Context, weekStart string) (*model.WeeklySummary, error) {
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil, fmt.Errorf("bad week %q: %w", weekStart, err)
	}
	weekStart = WeekStart(start)
	start, _ = time.Parse("2006-01-02", weekStart)
	weekEnd := model.DateOf(start.AddDate(0, 0, 6))

	lock, err := flock.Acquire(e.store.LockDir(), "week-"+weekStart)
	if err != nil {
		return nil, fmt.Errorf("consolidate week %s: %w", weekStart, err)
	}
	defer lock.Release()

	dates, err := e.store.ListDates(weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("consolidate week %s: %w", weekStart, err)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("week %s: %w", weekStart, ErrNothingToConsolidate)
	}

	var entries []model.Entry
	for _, date := range dates {
		day, err := e.store.Read(date)
		if err != nil {
			return nil, fmt.Errorf("consolidate week %s: %w", weekStart, err)
		}
		entries = append(entries, day...)
	}

	summary := model.WeeklySummary{
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		SourceDates: dates,
	}
	summary.Decisions, summary.Preferences, summary.ActionItems = distill(entries)

	hash := summaryHash(dates, summary.Decisions, summary.Preferences, summary.ActionItems)
	summary.GeneratedAt = time.Now().Truncate(time.Minute)
	// Re-running over unchanged sources must reproduce the file byte
	// for byte, so an unchanged summary keeps its original timestamp.
	if prev, err := e.reg.GetWeekly(ctx, weekStart); err != nil {
		return nil, fmt.Errorf("consolidate week %s: %w", weekStart, err)
	} else if prev != nil && prev.ContentHash == hash {
		summary.GeneratedAt = prev.GeneratedAt
	}

	if err := writeAtomic(e.weeklyPath(weekStart), renderWeekly(summary)); err != nil {
		return nil, fmt.Errorf("consolidate week %s: %w", weekStart, err)
	}
	err = e.reg.CommitWeekly(ctx, registry.WeekRecord{
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		GeneratedAt: summary.GeneratedAt,
		SourceDates: dates,
		ContentHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("consolidate week %s: %w", weekStart, err)
	}
	return &summary, nil
}

// ConsolidateMonthly distills every committed week of month (YYYY-MM)
// into a monthly summary. A week belongs to the month of its Monday.
func (e *Engine) ConsolidateMonthly(ctx context.Context, month string) (*model.MonthlySummary, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("bad month %q: %w", month, err)
	}

	lock, err := flock.Acquire(e.store.LockDir(), "month-"+month)
	if err != nil {
		return nil, fmt.Errorf("consolidate month %s: %w", month, err)
	}
	defer lock.Release()

	weeks, err := e.reg.ListWeekly(ctx)
	if err != nil {
		return nil, fmt.Errorf("consolidate month %s: %w", month, err)
	}

	summary := model.MonthlySummary{Month: month}
	for _, w := range weeks {
		if !strings.HasPrefix(w.WeekStart, month+"-") {
			continue
		}
		weekly, err := e.ReadWeekly(w.WeekStart)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue // committed but already pruned file: row carries no content
			}
			return nil, fmt.Errorf("consolidate month %s: %w", month, err)
		}
		summary.SourceWeeks = append(summary.SourceWeeks, w.WeekStart)
		summary.Decisions = appendDedup(summary.Decisions, weekly.Decisions)
		summary.Preferences = appendDedup(summary.Preferences, weekly.Preferences)
		summary.ActionItems = appendDedup(summary.ActionItems, weekly.ActionItems)
	}
	if len(summary.SourceWeeks) == 0 {
		return nil, fmt.Errorf("month %s: %w", month, ErrNothingToConsolidate)
	}

	hash := summaryHash(summary.SourceWeeks, summary.Decisions, summary.Preferences, summary.ActionItems)
	summary.GeneratedAt = time.Now().Truncate(time.Minute)
	if prev, err := e.reg.GetMonthly(ctx, month); err != nil {
		return nil, fmt.Errorf("consolidate month %s: %w", month, err)
	} else if prev != nil && prev.ContentHash == hash {
		summary.GeneratedAt = prev.GeneratedAt
	}

	if err := writeAtomic(e.monthlyPath(month), renderMonthly(summary)); err != nil {
		return nil, fmt.Errorf("consolidate month %s: %w", month, err)
	}
	err = e.reg.CommitMonthly(ctx, registry.MonthRecord{
		Month:       month,
		GeneratedAt: summary.GeneratedAt,
		SourceWeeks: summary.SourceWeeks,
		ContentHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("consolidate month %s: %w", month, err)
	}
	return &summary, nil
}

// DeleteDaily destroys the daily file for date. Refused with
// ErrNotCaptured unless the date's week has a committed weekly summary
// whose source dates include it.
func (e *Engine) DeleteDaily(ctx context.Context, date string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("bad date %q: %w", date, err)
	}
	week, err := e.reg.GetWeekly(ctx, WeekStart(day))
	if err != nil {
		return fmt.Errorf("delete daily %s: %w", date, err)
	}
	if week == nil || !contains(week.SourceDates, date) {
		return fmt.Errorf("daily %s: %w", date, ErrNotCaptured)
	}
	return e.store.DeleteDaily(date)
}

// ReadWeekly parses the weekly summary file for weekStart.
func (e *Engine) ReadWeekly(weekStart string) (*model.WeeklySummary, error) {
	data, err := os.ReadFile(e.weeklyPath(weekStart))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("weekly summary %s: %w", weekStart, store.ErrNotFound)
		}
		return nil, err
	}
	w, err := parseWeekly(weekStart, string(data))
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ReadMonthly parses the monthly summary file for month.
func (e *Engine) ReadMonthly(month string) (*model.MonthlySummary, error) {
	data, err := os.ReadFile(e.monthlyPath(month))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("monthly summary %s: %w", month, store.ErrNotFound)
		}
		return nil, err
	}
	m, err := parseMonthly(month, string(data))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListWeekly returns the week_start keys of the weekly summary files on
// disk, ascending.
func (e *Engine) ListWeekly() ([]string, error) {
	glob, err := filepath.Glob(filepath.Join(e.distilledDir(), "Week_*.md"))
	if err != nil {
		return nil, err
	}
	var weeks []string
	for _, path := range glob {
		name := filepath.Base(path)
		weeks = append(weeks, strings.TrimSuffix(strings.TrimPrefix(name, "Week_"), ".md"))
	}
	sort.Strings(weeks)
	return weeks, nil
}

// ListMonthly returns the month keys of the monthly summary files on
// disk, ascending.
func (e *Engine) ListMonthly() ([]string, error) {
	glob, err := filepath.Glob(filepath.Join(e.distilledDir(), "Month_*.md"))
	if err != nil {
		return nil, err
	}
	var months []string
	for _, path := range glob {
		name := filepath.Base(path)
		months = append(months, strings.TrimSuffix(strings.TrimPrefix(name, "Month_"), ".md"))
	}
	sort.Strings(months)
	return months, nil
}

// distill buckets entries into summary sections: decisions by category,
// action items by category, preferences by indicator tokens in
// important/general entries. Everything else stays only in the raw
// daily files. Statements are deduplicated on normalized text.
func distill(entries []model.Entry) (decisions, preferences, actions []string) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		switch {
		case e.Category == model.CategoryDecision:
			decisions = appendDedup(decisions, []string{text})
		case e.Category == model.CategoryAction:
			actions = appendDedup(actions, []string{text})
		case hasPreferenceToken(text):
			preferences = appendDedup(preferences, []string{text})
		}
	}
	return
}

var preferenceTokens = []string{"prefer", "like", "favorite", "always use", "never use", "love", "hate"}

func hasPreferenceToken(text string) bool {
	lower := strings.ToLower(text)
	for _, tok := range preferenceTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func appendDedup(dst []string, items []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[model.NormalizeText(s)] = true
	}
	for _, s := range items {
		norm := model.NormalizeText(s)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		dst = append(dst, s)
	}
	return dst
}

func summaryHash(sources []string, sections ...[]string) string {
	h := sha256.New()
	for _, s := range sources {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	for _, sec := range sections {
		h.Write([]byte{1})
		for _, item := range sec {
			h.Write([]byte(item))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeAtomic(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
