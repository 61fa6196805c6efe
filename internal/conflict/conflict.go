// Package conflict scans stored memories for contradictory statements
// about a topic. It is a heuristic, best-effort detector: false
// negatives are fine, no matches is an empty result, and it never
// mutates stored data.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openclaw/memory-brain/internal/consolidate"
	"github.com/openclaw/memory-brain/internal/embedding"
	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/store"
	"github.com/openclaw/memory-brain/internal/vector"
)

// Item is one memory statement pulled into a conflict check.
type Item struct {
	Text      string    `json:"text"`
	Tier      string    `json:"tier"`
	Ref       string    `json:"ref"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Candidate is a flagged pair. Newer/Older orders the members by
// recency; Keyword is the exclusive-term pair or shared topic token
// that triggered the flag, for explainability.
type Candidate struct {
	Newer   Item   `json:"newer"`
	Older   Item   `json:"older"`
	Keyword string `json:"keyword"`
}

// Detector finds conflict candidates across tiers.
type Detector struct {
	store    *store.Store
	cons     *consolidate.Engine
	index    vector.Index       // nil is fine: detection stays local
	embedder embedding.Embedder // nil disables the similarity rule
	groups   [][]string
	timeout  time.Duration

	// lookbackDays bounds the daily scan.
	lookbackDays int
}

// Indicator phrases that mark a statement as revising an earlier one.
var indicators = []string{"instead of", "rather than", "switched to", "actually", "no longer"}

// Two statements this close in embedding space are about the same thing.
const similarTopicThreshold = 0.85

// New creates a detector. groups are the mutually exclusive term groups;
// index and embedder may be nil.
func New(s *store.Store, cons *consolidate.Engine, index vector.Index, embedder embedding.Embedder, groups [][]string, timeout time.Duration) *Detector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Detector{
		store: s, cons: cons, index: index, embedder: embedder,
		groups: groups, timeout: timeout, lookbackDays: 90,
	}
}

// Detect tokenizes topicText, gathers matching memories across tiers,
// and flags contradictory pairs, most recent first.
func (d *Detector) Detect(ctx context.Context, topicText string) ([]Candidate, error) {
	tokens := topicTokens(topicText)
	if len(tokens) == 0 {
		return nil, nil
	}
	items, err := d.gather(ctx, topicText, tokens)
	if err != nil {
		return nil, err
	}
	vecs := d.embedItems(ctx, items)

	var out []Candidate
	seen := map[string]bool{}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			cand, ok := d.pair(items[i], items[j], tokens)
			if !ok && vecs != nil {
				cand, ok = d.similarPair(items[i], items[j], vecs[i], vecs[j], tokens)
			}
			if !ok {
				continue
			}
			key := model.NormalizeText(cand.Older.Text) + "\x00" + model.NormalizeText(cand.Newer.Text)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, cand)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Newer.Timestamp.After(out[j].Newer.Timestamp)
	})
	return out, nil
}

func (d *Detector) gather(ctx context.Context, topicText string, tokens []string) ([]Item, error) {
	var items []Item

	from := model.DateOf(time.Now().AddDate(0, 0, -d.lookbackDays))
	dates, err := d.store.ListDates(from, "")
	if err != nil {
		return nil, fmt.Errorf("conflict scan: %w", err)
	}
	for _, date := range dates {
		entries, err := d.store.Read(date)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("conflict scan: %w", err)
		}
		for _, e := range entries {
			if containsAnyToken(e.Text, tokens) {
				items = append(items, Item{Text: e.Text, Tier: "daily", Ref: date, Timestamp: e.Timestamp})
			}
		}
	}

	weeks, err := d.cons.ListWeekly()
	if err != nil {
		return nil, fmt.Errorf("conflict scan: %w", err)
	}
	for _, weekStart := range weeks {
		summary, err := d.cons.ReadWeekly(weekStart)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("conflict scan: %w", err)
		}
		weekEnd, _ := time.Parse("2006-01-02", summary.WeekEnd)
		for _, sec := range [][]string{summary.Decisions, summary.Preferences, summary.ActionItems} {
			for _, item := range sec {
				if containsAnyToken(item, tokens) {
					items = append(items, Item{Text: item, Tier: "weekly", Ref: weekStart, Timestamp: weekEnd})
				}
			}
		}
	}

	// Vector matches are best effort: the backend being down must not
	// break a local conflict check.
	if d.index != nil {
		vctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		matches, err := d.index.Search(vctx, "mem_distilled", topicText, 10)
		if err == nil {
			for _, m := range matches {
				if containsAnyToken(m.Text, tokens) {
					items = append(items, Item{Text: m.Text, Tier: "vector", Ref: m.Collection})
				}
			}
		}
	}
	return dedupeItems(items), nil
}

// embedItems embeds every gathered item, best effort under the bounded
// timeout. Returns nil when no embedder is configured or any embedding
// fails: the keyword rules still run without it.
func (d *Detector) embedItems(ctx context.Context, items []Item) []embedding.Vector {
	if d.embedder == nil || len(items) == 0 {
		return nil
	}
	ectx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	vecs := make([]embedding.Vector, len(items))
	for i, it := range items {
		vec, err := d.embedder.Embed(ectx, it.Text)
		if err != nil {
			return nil
		}
		vecs[i] = vec
	}
	return vecs
}

// similarPair is the embedding rule: two statements close in embedding
// space are about the same thing, and one of them revising it flags the
// pair even without an exclusive-term hit.
func (d *Detector) similarPair(a, b Item, va, vb embedding.Vector, tokens []string) (Candidate, bool) {
	if model.NormalizeText(a.Text) == model.NormalizeText(b.Text) {
		return Candidate{}, false
	}
	if embedding.CosineSimilarity(va, vb) < similarTopicThreshold {
		return Candidate{}, false
	}
	if !hasIndicator(a.Text) && !hasIndicator(b.Text) {
		return Candidate{}, false
	}
	keyword := "similar"
	for _, tok := range tokens {
		if containsWord(a.Text, tok) && containsWord(b.Text, tok) {
			keyword = tok
			break
		}
	}
	return order(a, b, keyword), true
}

// pair decides whether two items contradict. Two rules: they hit
// different members of one exclusive-term group, or both carry a
// revision indicator while sharing a topic token.
func (d *Detector) pair(a, b Item, tokens []string) (Candidate, bool) {
	if model.NormalizeText(a.Text) == model.NormalizeText(b.Text) {
		return Candidate{}, false
	}
	if kw, ok := d.exclusiveHit(a.Text, b.Text); ok {
		return order(a, b, kw), true
	}
	if hasIndicator(a.Text) && hasIndicator(b.Text) {
		for _, tok := range tokens {
			if containsWord(a.Text, tok) && containsWord(b.Text, tok) {
				return order(a, b, tok), true
			}
		}
	}
	return Candidate{}, false
}

func (d *Detector) exclusiveHit(a, b string) (string, bool) {
	for _, group := range d.groups {
		for _, ta := range group {
			if !containsWord(a, ta) {
				continue
			}
			for _, tb := range group {
				if tb != ta && containsWord(b, tb) {
					return ta + "/" + tb, true
				}
			}
		}
	}
	return "", false
}

func order(a, b Item, keyword string) Candidate {
	if a.Timestamp.After(b.Timestamp) {
		return Candidate{Newer: a, Older: b, Keyword: keyword}
	}
	return Candidate{Newer: b, Older: a, Keyword: keyword}
}

func topicTokens(text string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'")
		if len(tok) > 1 {
			out = append(out, tok)
		}
	}
	return out
}

func containsAnyToken(text string, tokens []string) bool {
	for _, tok := range tokens {
		if containsWord(text, tok) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if strings.Trim(tok, ".,;:!?\"'()") == word {
			return true
		}
	}
	return false
}

func hasIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

func dedupeItems(items []Item) []Item {
	seen := map[string]bool{}
	var out []Item
	for _, it := range items {
		key := model.NormalizeText(it.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
