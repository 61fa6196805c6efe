package vector

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/openclaw/memory-brain/internal/embedding"
)

// axisEmbedder maps each known word to its own axis so similarity is
// exact: identical text scores 1, disjoint text scores 0.
type axisEmbedder struct{ words []string }

func (a *axisEmbedder) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	vec := make(embedding.Vector, len(a.words))
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		for i, w := range a.words {
			if tok == w {
				vec[i] = 1
			}
		}
	}
	// chromem expects normalized vectors.
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		inv := 1 / float32(math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func (a *axisEmbedder) Dims() int { return len(a.words) }

func newTestChromem(t *testing.T) *Chromem {
	t.Helper()
	emb := &axisEmbedder{words: []string{"alpha", "beta", "gamma", "delta"}}
	c, err := NewChromem(t.TempDir(), emb)
	if err != nil {
		t.Fatalf("new chromem: %v", err)
	}
	return c
}

func TestChromemRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestChromem(t)

	if err := c.EnsureCollection(ctx, "mem_general"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := c.Upsert(ctx, "mem_general", "id-1", "alpha beta"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := c.Upsert(ctx, "mem_general", "id-2", "gamma delta"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := c.Search(ctx, "mem_general", "alpha beta", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no matches")
	}
	if matches[0].Text != "alpha beta" {
		t.Errorf("best match = %+v", matches[0])
	}
	if matches[0].Score < 0.99 {
		t.Errorf("identical text scored %v", matches[0].Score)
	}
}

func TestChromemSearchEmptyCollection(t *testing.T) {
	ctx := context.Background()
	c := newTestChromem(t)

	matches, err := c.Search(ctx, "mem_empty", "alpha", 5)
	if err != nil || matches != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", matches, err)
	}
}

func TestChromemPing(t *testing.T) {
	c := newTestChromem(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}
