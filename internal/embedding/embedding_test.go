package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1},
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0},
		{"opposite", Vector{1, 0}, Vector{-1, 0}, -1},
		{"length mismatch", Vector{1, 0}, Vector{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", Vector{0, 0}, Vector{1, 1}, 0},
	}
	for _, tt := range tests {
		got := CosineSimilarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

// countingEmbedder returns a fixed vector and counts calls.
type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return Vector{1, 2, 3}, nil
}

func (c *countingEmbedder) Dims() int { return 3 }

func TestCachedEmbedderMemoizes(t *testing.T) {
	inner := &countingEmbedder{}
	e := NewCached(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		vec, err := e.Embed(ctx, "same text")
		if err != nil {
			t.Fatalf("embed: %v", err)
		}
		if len(vec) != 3 {
			t.Fatalf("vec = %v", vec)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}

	if _, err := e.Embed(ctx, "different text"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
}

func TestCachedEmbedderSkipsErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("provider down")}
	e := NewCached(inner)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := e.Embed(ctx, "same text"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times: errors must not be cached", inner.calls)
	}
}

func TestNewFromEnvDisabled(t *testing.T) {
	t.Setenv("MEMORY_BRAIN_EMBED_PROVIDER", "")
	if e := NewFromEnv(); e != nil {
		t.Errorf("expected nil embedder, got %T", e)
	}
}

func TestNewFromEnvOllama(t *testing.T) {
	t.Setenv("MEMORY_BRAIN_EMBED_PROVIDER", "ollama")
	t.Setenv("MEMORY_BRAIN_EMBED_MODEL", "")
	e := NewFromEnv()
	if e == nil {
		t.Fatal("expected embedder")
	}
	if e.Dims() != 768 {
		t.Errorf("default model dims = %d", e.Dims())
	}
}
