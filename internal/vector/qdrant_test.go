package vector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openclaw/memory-brain/internal/embedding"
)

// fixedEmbedder hashes nothing: every text embeds to the same vector.
type fixedEmbedder struct{ vec embedding.Vector }

func (f *fixedEmbedder) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	return f.vec, nil
}

func (f *fixedEmbedder) Dims() int { return len(f.vec) }

func newFakeQdrant(t *testing.T, handler http.HandlerFunc) *Qdrant {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewQdrant(srv.URL, &fixedEmbedder{vec: embedding.Vector{1, 0, 0}}, time.Second)
}

func TestQdrantSearch(t *testing.T) {
	q := newFakeQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/mem_general/points/query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["with_payload"] != true {
			t.Error("payload not requested")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"points": []map[string]any{
					{"score": 0.91, "payload": map[string]string{"content": "first"}},
					{"score": 0.42, "payload": map[string]string{"content": "second"}},
				},
			},
		})
	})

	matches, err := q.Search(context.Background(), "mem_general", "anything", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %v", matches)
	}
	if matches[0].Text != "first" || matches[0].Score != 0.91 || matches[0].Collection != "mem_general" {
		t.Errorf("got %+v", matches[0])
	}
}

func TestQdrantSearchMissingCollection(t *testing.T) {
	q := newFakeQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	matches, err := q.Search(context.Background(), "mem_general", "anything", 5)
	if err != nil || matches != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", matches, err)
	}
}

func TestQdrantEnsureCollectionExists(t *testing.T) {
	q := newFakeQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusConflict) // already exists
	})
	if err := q.EnsureCollection(context.Background(), "mem_general"); err != nil {
		t.Errorf("existing collection should be fine: %v", err)
	}
}

func TestQdrantUpsertStableID(t *testing.T) {
	var gotID string
	q := newFakeQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Points []struct {
				ID string `json:"id"`
			} `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Points) != 1 {
			t.Errorf("bad upsert payload: %v", err)
		}
		if gotID == "" {
			gotID = payload.Points[0].ID
		} else if payload.Points[0].ID != gotID {
			t.Errorf("point id changed: %s vs %s", payload.Points[0].ID, gotID)
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := q.Upsert(ctx, "mem_general", "01ARZ3NDEKTSV4RRFFQ69G5FAV", "same text"); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if gotID == "" {
		t.Error("no upsert observed")
	}
}

func TestQdrantPing(t *testing.T) {
	q := newFakeQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if err := q.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestQdrantDownIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore
	q := NewQdrant(srv.URL, &fixedEmbedder{vec: embedding.Vector{1}}, 200*time.Millisecond)

	if err := q.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if _, err := q.Search(context.Background(), "mem_general", "x", 5); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
