// Package query fans a query out across the daily, weekly, and vector
// tiers, then merges, deduplicates, and ranks the results. A failing
// vector collaborator degrades the query instead of failing it.
package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/openclaw/memory-brain/internal/consolidate"
	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/store"
	"github.com/openclaw/memory-brain/internal/vector"
)

// Options selects which tiers to search. The zero value of the three
// include flags means "all tiers"; use Default() to make that explicit.
type Options struct {
	Daily   bool `json:"daily"`
	Weekly  bool `json:"weekly"`
	Vectors bool `json:"vectors"`
	Days    int  `json:"days"`  // daily lookback window, default 30
	Limit   int  `json:"limit"` // default 20
}

// Default returns options with every tier enabled.
func Default() Options {
	return Options{Daily: true, Weekly: true, Vectors: true}
}

// Result is one ranked match from any tier.
type Result struct {
	Tier       string    `json:"tier"` // daily | weekly | vector
	Ref        string    `json:"ref"`  // date, week start, or collection
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
	Collection string    `json:"collection,omitempty"`
}

// Response carries the ranked results plus the degradation flag.
type Response struct {
	Results        []Result `json:"results"`
	Degraded       bool     `json:"degraded,omitempty"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
}

// Engine serves cross-tier queries.
type Engine struct {
	store       *store.Store
	cons        *consolidate.Engine
	index       vector.Index // nil when no backend is configured
	collections []string
	timeout     time.Duration
}

// New creates a query engine. index may be nil.
func New(s *store.Store, cons *consolidate.Engine, index vector.Index, collections []string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Engine{store: s, cons: cons, index: index, collections: collections, timeout: timeout}
}

// Query searches the requested tiers for text. An empty result set is a
// valid response, not an error.
func (e *Engine) Query(ctx context.Context, text string, opts Options) (*Response, error) {
	// No tier selected means no tier excluded.
	if !opts.Daily && !opts.Weekly && !opts.Vectors {
		opts.Daily, opts.Weekly, opts.Vectors = true, true, true
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Days <= 0 {
		opts.Days = 30
	}
	m := newMatcher(text)
	resp := &Response{}

	if opts.Daily {
		results, err := e.searchDaily(m, opts.Days)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, results...)
	}
	if opts.Weekly {
		results, err := e.searchWeekly(m)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, results...)
	}
	if opts.Vectors {
		results, reason := e.searchVectors(ctx, text, opts.Limit)
		if reason != "" {
			resp.Degraded = true
			resp.DegradedReason = reason
		}
		resp.Results = append(resp.Results, results...)
	}

	resp.Results = dedupe(resp.Results)
	sort.SliceStable(resp.Results, func(i, j int) bool {
		if resp.Results[i].Score != resp.Results[j].Score {
			return resp.Results[i].Score > resp.Results[j].Score
		}
		return resp.Results[i].Timestamp.After(resp.Results[j].Timestamp)
	})
	if len(resp.Results) > opts.Limit {
		resp.Results = resp.Results[:opts.Limit]
	}
	return resp, nil
}

func (e *Engine) searchDaily(m *matcher, days int) ([]Result, error) {
	now := time.Now()
	from := model.DateOf(now.AddDate(0, 0, -days))
	dates, err := e.store.ListDates(from, "")
	if err != nil {
		return nil, fmt.Errorf("query daily: %w", err)
	}
	var out []Result
	for _, date := range dates {
		entries, err := e.store.Read(date)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query daily: %w", err)
		}
		for _, entry := range entries {
			if !m.matches(entry.Text) {
				continue
			}
			out = append(out, Result{
				Tier:      "daily",
				Ref:       date,
				Text:      entry.Text,
				Score:     dailyScore(now, entry.Timestamp),
				Timestamp: entry.Timestamp,
			})
		}
	}
	return out, nil
}

func (e *Engine) searchWeekly(m *matcher) ([]Result, error) {
	weeks, err := e.cons.ListWeekly()
	if err != nil {
		return nil, fmt.Errorf("query weekly: %w", err)
	}
	now := time.Now()
	var out []Result
	for _, weekStart := range weeks {
		summary, err := e.cons.ReadWeekly(weekStart)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query weekly: %w", err)
		}
		weekEnd, _ := time.Parse("2006-01-02", summary.WeekEnd)
		for _, items := range [][]string{summary.Decisions, summary.Preferences, summary.ActionItems} {
			for _, item := range items {
				if !m.matches(item) {
					continue
				}
				out = append(out, Result{
					Tier:      "weekly",
					Ref:       weekStart,
					Text:      item,
					Score:     weeklyScore(now, weekEnd),
					Timestamp: weekEnd,
				})
			}
		}
	}
	return out, nil
}

// searchVectors queries the collaborator under a bounded timeout. The
// returned reason is non-empty when the tier was skipped or cut short.
func (e *Engine) searchVectors(ctx context.Context, text string, limit int) ([]Result, string) {
	if e.index == nil {
		return nil, "vectors unavailable: no backend configured"
	}
	vctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var out []Result
	for _, coll := range e.collections {
		matches, err := e.index.Search(vctx, coll, text, limit)
		if err != nil {
			// Any collaborator failure degrades the query; the local
			// tiers already answered.
			return out, "vectors unavailable: " + err.Error()
		}
		for _, match := range matches {
			out = append(out, Result{
				Tier:       "vector",
				Ref:        match.Collection,
				Text:       match.Text,
				Score:      vectorScore(match.Score),
				Collection: match.Collection,
			})
		}
	}
	return out, ""
}

// Local scores live below 1.0 and vector scores above it, so vector
// similarity dominates the merged ranking whenever it is present;
// without it recency decides, newer first within each tier weight.
func dailyScore(now, ts time.Time) float64 {
	age := now.Sub(ts).Hours() / 24
	return 0.55 + 0.35*math.Exp(-age*math.Ln2/7)
}

func weeklyScore(now time.Time, weekEnd time.Time) float64 {
	age := now.Sub(weekEnd).Hours() / 24 / 7
	return 0.45 + 0.35*math.Exp(-age*math.Ln2/4)
}

func vectorScore(similarity float64) float64 {
	return 1 + similarity
}

// dedupe collapses near-identical text across tiers, keeping the
// highest-scoring instance. Stable: earlier entries win ties.
func dedupe(results []Result) []Result {
	best := map[string]int{}
	var out []Result
	for _, r := range results {
		key := model.NormalizeText(r.Text)
		if i, ok := best[key]; ok {
			if r.Score > out[i].Score {
				out[i] = r
			}
			continue
		}
		best[key] = len(out)
		out = append(out, r)
	}
	return out
}

// matcher does case-insensitive substring-or-token matching.
type matcher struct {
	query  string
	tokens []string
}

func newMatcher(text string) *matcher {
	lower := strings.ToLower(strings.TrimSpace(text))
	return &matcher{query: lower, tokens: strings.Fields(lower)}
}

func (m *matcher) matches(text string) bool {
	lower := strings.ToLower(text)
	if m.query == "" {
		return false
	}
	if strings.Contains(lower, m.query) {
		return true
	}
	for _, tok := range m.tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
