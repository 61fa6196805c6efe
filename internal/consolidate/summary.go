package consolidate

import (
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/memory-brain/internal/model"
)

// Weekly and monthly summaries are markdown an operator can read
// without tooling:
//
//	# Weekly Memory Summary - 2026-01-26 to 2026-02-01
//
//	*Generated: 2026-02-02 09:00*
//
//	Source days: 2026-01-26, 2026-01-28
//
//	## Decisions
//
//	- we decided to use venv
//
//	---
//	*Distilled summary. See daily files for full detail.*

func renderWeekly(w model.WeeklySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly Memory Summary - %s to %s\n\n", w.WeekStart, w.WeekEnd)
	fmt.Fprintf(&b, "*Generated: %s*\n\n", w.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Source days: %s\n", strings.Join(w.SourceDates, ", "))
	renderSections(&b, w.Decisions, w.Preferences, w.ActionItems)
	b.WriteString("\n---\n*Distilled weekly summary. See daily files for full detail.*\n")
	return b.String()
}

func renderMonthly(m model.MonthlySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Monthly Memory Summary - %s\n\n", m.Month)
	fmt.Fprintf(&b, "*Generated: %s*\n\n", m.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Source weeks: %s\n", strings.Join(m.SourceWeeks, ", "))
	renderSections(&b, m.Decisions, m.Preferences, m.ActionItems)
	b.WriteString("\n---\n*Distilled monthly summary. See weekly summaries for detail.*\n")
	return b.String()
}

func renderSections(b *strings.Builder, decisions, preferences, actions []string) {
	sections := []struct {
		title string
		items []string
	}{
		{"Decisions", decisions},
		{"Preferences", preferences},
		{"Action Items", actions},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(b, "\n## %s\n\n", s.title)
		for _, item := range s.items {
			fmt.Fprintf(b, "- %s\n", item)
		}
	}
}

// parseSummarySections pulls the section line items back out of a
// rendered summary, for the query and conflict paths.
func parseSummarySections(content string) (decisions, preferences, actions []string) {
	var current *[]string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "## Decisions":
			current = &decisions
		case line == "## Preferences":
			current = &preferences
		case line == "## Action Items":
			current = &actions
		case strings.HasPrefix(line, "## "):
			current = nil
		case strings.HasPrefix(line, "- ") && current != nil:
			*current = append(*current, strings.TrimPrefix(line, "- "))
		}
	}
	return
}

func parseWeekly(weekStart, content string) (model.WeeklySummary, error) {
	w := model.WeeklySummary{WeekStart: weekStart}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "# Weekly Memory Summary - "); ok {
			if _, end, found := strings.Cut(rest, " to "); found {
				w.WeekEnd = end
			}
		}
		if rest, ok := strings.CutPrefix(line, "Source days: "); ok {
			w.SourceDates = splitList(rest)
		}
		if inner, ok := cutWrapped(line, "*Generated: ", "*"); ok {
			w.GeneratedAt, _ = time.ParseInLocation("2006-01-02 15:04", inner, time.Local)
		}
	}
	w.Decisions, w.Preferences, w.ActionItems = parseSummarySections(content)
	return w, nil
}

func parseMonthly(month, content string) (model.MonthlySummary, error) {
	m := model.MonthlySummary{Month: month}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Source weeks: "); ok {
			m.SourceWeeks = splitList(rest)
		}
		if inner, ok := cutWrapped(line, "*Generated: ", "*"); ok {
			m.GeneratedAt, _ = time.ParseInLocation("2006-01-02 15:04", inner, time.Local)
		}
	}
	m.Decisions, m.Preferences, m.ActionItems = parseSummarySections(content)
	return m, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cutWrapped(line, prefix, suffix string) (string, bool) {
	if strings.HasPrefix(line, prefix) && strings.HasSuffix(line, suffix) && len(line) > len(prefix)+len(suffix) {
		return line[len(prefix) : len(line)-len(suffix)], true
	}
	return "", false
}
