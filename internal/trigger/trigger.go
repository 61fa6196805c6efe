// Package trigger maps keyword-trigger phrases ("remember this: ...")
// to a memory category and importance via an ordered rule table. First
// match wins; no match means the text is not a trigger.
package trigger

import (
	"regexp"
	"strings"

	"github.com/openclaw/memory-brain/internal/model"
)

// Rule is one pattern -> effect entry.
type Rule struct {
	Pattern    *regexp.Regexp
	Category   string
	Importance string
}

// Hit is a matched trigger: the captured content plus the rule's effect.
type Hit struct {
	Content    string
	Category   string
	Importance string
}

// Rules is the default ordered rule table.
var Rules = []Rule{
	{regexp.MustCompile(`(?i)we decided[:\s]+(.+)`), model.CategoryDecision, model.ImportanceNormal},
	{regexp.MustCompile(`(?i)make sure to[:\s]+(.+)`), model.CategoryAction, model.ImportanceNormal},
	{regexp.MustCompile(`(?i)don't forget[:\s]+(.+)`), model.CategoryAction, model.ImportanceHigh},
	{regexp.MustCompile(`(?i)this is important[:\s]+(.+)`), model.CategoryImportant, model.ImportanceHigh},
	{regexp.MustCompile(`(?i)for future reference[:\s]+(.+)`), model.CategoryImportant, model.ImportanceNormal},
	{regexp.MustCompile(`(?i)remember this[:\s]+(.+)`), model.CategoryGeneral, model.ImportanceNormal},
}

// Detect matches text against the rule table. Returns nil if no rule
// matches.
func Detect(text string) *Hit {
	return detect(Rules, text)
}

func detect(rules []Rule, text string) *Hit {
	for _, r := range rules {
		if m := r.Pattern.FindStringSubmatch(text); m != nil {
			return &Hit{
				Content:    strings.TrimSpace(m[1]),
				Category:   r.Category,
				Importance: r.Importance,
			}
		}
	}
	return nil
}

// Classify is Detect with a default: non-trigger text comes back whole
// as general/normal.
func Classify(text string) Hit {
	if h := Detect(text); h != nil {
		return *h
	}
	return Hit{
		Content:    strings.TrimSpace(text),
		Category:   model.CategoryGeneral,
		Importance: model.ImportanceNormal,
	}
}
