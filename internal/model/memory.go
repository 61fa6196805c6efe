// Package model defines the core memory data types.
package model

import (
	"strings"
	"time"
	"unicode"
)

// Entry is one atomic fact in the daily tier. Entries are immutable once
// written: they are superseded by newer entries or summarized away, never
// edited in place.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"` // second precision
	Category   string    `json:"category"`
	Importance string    `json:"importance"`
	Text       string    `json:"text"`
	Source     string    `json:"source"`
}

// Entry categories.
const (
	CategoryDecision  = "decision"
	CategoryAction    = "action"
	CategoryImportant = "important"
	CategoryGeneral   = "general"
)

// Importance levels.
const (
	ImportanceNormal = "normal"
	ImportanceHigh   = "high"
)

// Entry sources.
const (
	SourceManual  = "manual"
	SourceTrigger = "trigger"
	SourceIngest  = "ingest"
)

// ValidCategories are the allowed entry categories.
var ValidCategories = map[string]bool{
	CategoryDecision:  true,
	CategoryAction:    true,
	CategoryImportant: true,
	CategoryGeneral:   true,
}

// ValidImportances are the allowed importance levels.
var ValidImportances = map[string]bool{
	ImportanceNormal: true,
	ImportanceHigh:   true,
}

// ValidSources are the allowed entry sources.
var ValidSources = map[string]bool{
	SourceManual:  true,
	SourceTrigger: true,
	SourceIngest:  true,
}

// WeeklySummary is the distilled record for one Mon-Sun window.
type WeeklySummary struct {
	WeekStart   string    `json:"week_start"` // YYYY-MM-DD, always a Monday
	WeekEnd     string    `json:"week_end"`
	GeneratedAt time.Time `json:"generated_at"`
	SourceDates []string  `json:"source_daily_dates"`
	Decisions   []string  `json:"decisions"`
	Preferences []string  `json:"preferences"`
	ActionItems []string  `json:"action_items"`
}

// MonthlySummary has the same shape as WeeklySummary, one tier up,
// keyed by calendar month and built from weekly summaries.
type MonthlySummary struct {
	Month       string    `json:"month"` // YYYY-MM
	GeneratedAt time.Time `json:"generated_at"`
	SourceWeeks []string  `json:"source_weeks"` // week_start dates
	Decisions   []string  `json:"decisions"`
	Preferences []string  `json:"preferences"`
	ActionItems []string  `json:"action_items"`
}

// Entity statuses.
const (
	StatusQuarantined = "quarantined"
	StatusValidated   = "validated"
)

// Entity is a named person/project/topic detected in text. A name is
// unique within its status partition; validation moves the record from
// quarantined to validated rather than copying it.
type Entity struct {
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Keywords         []string   `json:"keywords"`
	Status           string     `json:"status"`
	DiscoveredAt     time.Time  `json:"discovered_at"`
	ValidatedAt      *time.Time `json:"validated_at,omitempty"`
	Context          string     `json:"context,omitempty"`
	TargetCollection string     `json:"target_collection,omitempty"`
}

// Slug normalizes a display name to its canonical comparison form:
// lowercase, punctuation stripped, runs of whitespace collapsed to a
// single underscore. "Dr. Smith" and "dr smith" both slug to "dr_smith".
func Slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// NormalizeText is the comparison form used to dedup statements across
// tiers: lowercased, whitespace runs collapsed.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// DateOf formats a timestamp as its daily-tier key.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
