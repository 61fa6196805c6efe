package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/openclaw/memory-brain/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return s
}

func entryAt(ts time.Time, text string) model.Entry {
	return model.Entry{
		Timestamp:  ts,
		Category:   model.CategoryGeneral,
		Importance: model.ImportanceNormal,
		Text:       text,
		Source:     model.SourceManual,
	}
}

func TestAppendAndRead(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2026, 2, 1, 14, 3, 22, 0, time.Local)

	e := entryAt(ts, "we decided to use venv")
	e.Category = model.CategoryDecision
	e.Importance = model.ImportanceHigh
	if err := s.Append(e); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Read("2026-02-01")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Text != "we decided to use venv" {
		t.Errorf("text = %q", got[0].Text)
	}
	if got[0].Category != model.CategoryDecision || got[0].Importance != model.ImportanceHigh {
		t.Errorf("category/importance = %s/%s", got[0].Category, got[0].Importance)
	}
	if got[0].Source != model.SourceManual {
		t.Errorf("source = %q", got[0].Source)
	}
	if !got[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, ts)
	}
	if got[0].ID == "" {
		t.Error("expected non-empty ID after round trip")
	}
}

func TestAppendOrdersByTimestamp(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)
	t1 := day.Add(9 * time.Hour)
	t2 := day.Add(11 * time.Hour)
	t3 := day.Add(15 * time.Hour)

	// Arrival order t2, t1, t3 must store as t1, t2, t3.
	for _, e := range []model.Entry{entryAt(t2, "second"), entryAt(t1, "first"), entryAt(t3, "third")} {
		if err := s.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Read("2026-02-01")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("entry %d = %q, want %q", i, got[i].Text, w)
		}
	}
}

func TestAppendValidation(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	cases := []struct {
		name  string
		entry model.Entry
	}{
		{"empty text", model.Entry{Timestamp: now, Category: "general", Importance: "normal", Source: "manual"}},
		{"bad category", entryWith(now, "x", "urgent", "normal", "manual")},
		{"bad importance", entryWith(now, "x", "general", "critical", "manual")},
		{"bad source", entryWith(now, "x", "general", "normal", "webhook")},
	}
	for _, tc := range cases {
		if err := s.Append(tc.entry); !errors.Is(err, ErrWrite) {
			t.Errorf("%s: expected ErrWrite, got %v", tc.name, err)
		}
	}
}

func entryWith(ts time.Time, text, category, importance, source string) model.Entry {
	return model.Entry{Timestamp: ts, Text: text, Category: category, Importance: importance, Source: source}
}

func TestReadMissingDate(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Read("2026-01-01")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMultilineEntryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	text := "deploy checklist:\n1. run migrations\n2. restart workers"
	ts := time.Date(2026, 2, 1, 8, 0, 0, 0, time.Local)
	if err := s.Append(entryAt(ts, text)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Read("2026-02-01")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[0].Text != text {
		t.Errorf("text = %q, want %q", got[0].Text, text)
	}
}

func TestEntryTextSurvivesStructureLikeLines(t *testing.T) {
	s := newTestStore(t)
	texts := []string{
		"steps to deploy:\n1. build\n---\n2. ship the artifact",
		"quoted block:\n## 09:00:00 - DECISION [high] (manual)\nstill the same entry",
		"escape carrier:\n\\---\nliteral backslash line",
	}
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.Local)
	for i, text := range texts {
		if err := s.Append(entryAt(base.Add(time.Duration(i)*time.Minute), text)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	// Each append re-reads the file, so a lossy round trip would have
	// persisted the truncation by now.
	got, err := s.Read("2026-02-01")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("entries = %d, want %d", len(got), len(texts))
	}
	for i, text := range texts {
		if got[i].Text != text {
			t.Errorf("entry %d text = %q, want %q", i, got[i].Text, text)
		}
	}
}

func TestListDates(t *testing.T) {
	s := newTestStore(t)
	days := []string{"2026-02-03", "2026-02-01", "2026-02-10"}
	for _, d := range days {
		ts, _ := time.ParseInLocation("2006-01-02", d, time.Local)
		if err := s.Append(entryAt(ts.Add(10*time.Hour), "note for "+d)); err != nil {
			t.Fatalf("append %s: %v", d, err)
		}
	}

	all, err := s.ListDates("", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2026-02-01", "2026-02-03", "2026-02-10"}
	if fmt.Sprint(all) != fmt.Sprint(want) {
		t.Errorf("all dates = %v, want %v", all, want)
	}

	ranged, _ := s.ListDates("2026-02-02", "2026-02-09")
	if len(ranged) != 1 || ranged[0] != "2026-02-03" {
		t.Errorf("ranged = %v", ranged)
	}
}

func TestDeleteDailyArchives(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.Local)
	if err := s.Append(entryAt(ts, "to be archived")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.DeleteDaily("2026-02-01"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Read("2026-02-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "archive", "2026-02-01.md")); err != nil {
		t.Errorf("expected archived file: %v", err)
	}

	if err := s.DeleteDaily("2026-02-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)

	const callers = 8
	const perCaller = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers*perCaller)
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				ts := day.Add(time.Duration(c*100+i) * time.Second)
				if err := s.Append(entryAt(ts, fmt.Sprintf("caller %d entry %d", c, i))); err != nil {
					errs <- err
				}
			}
		}(c)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent append: %v", err)
	}

	got, err := s.Read("2026-02-01")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != callers*perCaller {
		t.Fatalf("expected %d entries, got %d", callers*perCaller, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("entries out of order at %d", i)
		}
	}
}
