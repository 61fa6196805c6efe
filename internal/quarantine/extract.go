package quarantine

import (
	"regexp"
	"strings"

	"github.com/openclaw/memory-brain/internal/model"
)

// Candidate is a potential entity pulled out of free text.
type Candidate struct {
	Name     string
	Keywords []string
}

// Extractor turns free text into entity candidates. The default is a
// deterministic heuristic; a stronger extractor can be swapped in
// without touching the quarantine lifecycle.
type Extractor interface {
	Extract(text string) []Candidate
}

// Heuristic is the built-in extractor: capitalized multi-token
// sequences, honorific-prefixed names, and an optional watch list of
// configured names.
type Heuristic struct {
	watch []string
}

// NewHeuristic returns the default extractor. watch is an optional list
// of names to flag whenever they appear, regardless of capitalization.
func NewHeuristic(watch []string) *Heuristic {
	return &Heuristic{watch: watch}
}

var capitalized = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3}\b`)
var honorific = regexp.MustCompile(`\b(?:Dr|Mr|Mrs|Ms|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`)

var stopWords = map[string]bool{
	"i": true, "we": true, "you": true, "he": true, "she": true, "it": true,
	"they": true, "the": true, "a": true, "an": true, "this": true,
	"that": true, "these": true, "those": true, "when": true, "where": true,
	"how": true, "why": true, "what": true, "who": true, "my": true,
	"our": true, "his": true, "her": true, "their": true, "monday": true,
	"tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true,
}

// Extract applies the heuristic. Candidates whose canonical names differ
// only by case or punctuation collapse to one candidate (slug dedup).
func (h *Heuristic) Extract(text string) []Candidate {
	seen := map[string]bool{}
	var out []Candidate

	add := func(name string) {
		name = strings.TrimSpace(name)
		slug := model.Slug(name)
		if slug == "" || seen[slug] {
			return
		}
		first := strings.ToLower(strings.Fields(name)[0])
		if stopWords[strings.TrimRight(first, ".")] {
			return
		}
		seen[slug] = true
		out = append(out, Candidate{Name: name, Keywords: keywordsFor(name)})
	}

	// Honorific names first so "Dr. Smith" wins over a bare "Smith"
	// captured inside a longer capitalized run.
	for _, m := range honorific.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range capitalized.FindAllString(text, -1) {
		add(m)
	}
	lower := strings.ToLower(text)
	for _, w := range h.watch {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			add(w)
		}
	}
	return out
}

// keywordsFor builds the matching-token set for a name: the normalized
// slug plus each lowercased token.
func keywordsFor(name string) []string {
	slug := model.Slug(name)
	keywords := []string{slug}
	seen := map[string]bool{slug: true}
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		tok = strings.Trim(tok, ".,;:!?")
		if tok != "" && !seen[tok] {
			seen[tok] = true
			keywords = append(keywords, tok)
		}
	}
	return keywords
}
