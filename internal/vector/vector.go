// Package vector abstracts the optional vector-similarity collaborator.
//
// The vector store is a derived, best-effort index over the canonical
// markdown tiers. It is never authoritative: when it disagrees with the
// canonical store the canonical store wins, and the whole index can be
// rebuilt from scratch (see the reindex operation) at any time.
package vector

import (
	"context"
	"errors"
)

// ErrUnavailable means the backend is unreachable or timed out. Queries
// treat it as a degraded-mode signal, never as a fatal error.
var ErrUnavailable = errors.New("vector backend unavailable")

// Match is one nearest-neighbor result.
type Match struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Collection string  `json:"collection"`
}

// Index is the collaborator interface: text in, scored matches out. The
// brain never does vector math itself; implementations own embedding.
type Index interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, name string) error

	// Upsert stores text under a stable id; re-upserting the same id
	// replaces the point, which keeps reindexing idempotent.
	Upsert(ctx context.Context, collection, id, text string) error

	// Search returns up to topK matches for the query text, best first.
	Search(ctx context.Context, collection, query string, topK int) ([]Match, error)

	// Ping reports reachability.
	Ping(ctx context.Context) error
}
