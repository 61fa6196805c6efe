package store

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openclaw/memory-brain/internal/model"
)

// Daily file format, one block per entry:
//
//	## 14:03:22 - DECISION [high] (manual)
//	<!-- 01HQZX3V9Z4N6W8RT2M5K7PBCD -->
//
//	we decided to use venv for all projects
//
//	---
//
// The ID comment is invisible in rendered markdown; an operator reading
// the raw file still sees a plain journal. Text lines that would read as
// structure (a bare "---", an entry heading, an ID comment) are escaped
// with a leading backslash on write and unescaped on read, so entry text
// survives the round trip unchanged.

var entryHeader = regexp.MustCompile(`^## (\d{2}:\d{2}:\d{2}) - ([A-Z]+) \[(\w+)\] \((\w+)\)$`)
var idComment = regexp.MustCompile(`^<!-- ([0-9A-Z]+) -->$`)

func renderDaily(date string, entries []model.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Memory - %s\n", date)
	for _, e := range entries {
		fmt.Fprintf(&b, "\n## %s - %s [%s] (%s)\n",
			e.Timestamp.Format("15:04:05"), strings.ToUpper(e.Category), e.Importance, e.Source)
		fmt.Fprintf(&b, "<!-- %s -->\n\n%s\n\n---\n", e.ID, escapeText(e.Text))
	}
	return b.String()
}

// escapeText protects text lines that would otherwise parse as file
// structure. Lines already starting with a backslash are escaped too, so
// unescaping can strip one leading backslash unconditionally.
func escapeText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.HasPrefix(line, `\`) || trimmed == "---" ||
			entryHeader.MatchString(trimmed) || idComment.MatchString(trimmed) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

func parseDaily(date, content string) ([]model.Entry, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}

	var entries []model.Entry
	var cur *model.Entry
	var text []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(strings.Join(text, "\n"))
		entries = append(entries, *cur)
		cur, text = nil, nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		if m := entryHeader.FindStringSubmatch(trimmed); m != nil {
			flush()
			clock, _ := time.Parse("15:04:05", m[1])
			cur = &model.Entry{
				Timestamp: time.Date(day.Year(), day.Month(), day.Day(),
					clock.Hour(), clock.Minute(), clock.Second(), 0, time.Local),
				Category:   strings.ToLower(m[2]),
				Importance: m[3],
				Source:     m[4],
			}
			continue
		}
		if cur == nil {
			continue
		}
		if m := idComment.FindStringSubmatch(trimmed); m != nil && cur.ID == "" && len(text) == 0 {
			cur.ID = m[1]
			continue
		}
		if trimmed == "---" {
			flush()
			continue
		}
		if strings.HasPrefix(line, `\`) {
			line = line[1:]
		}
		text = append(text, line)
	}
	flush()
	return entries, nil
}
