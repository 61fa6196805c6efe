// Package embedding provides a pluggable interface for text embedding
// providers. The brain never computes embeddings itself; it hands text
// to one of these collaborators.
package embedding

import (
	"context"
	"math"
	"os"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dims() int
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NewFromEnv creates an embedder from environment variables.
// MEMORY_BRAIN_EMBED_PROVIDER: "ollama" | "openai" | "" (disabled)
// MEMORY_BRAIN_EMBED_MODEL: model name
// MEMORY_BRAIN_EMBED_URL: base URL override
// OPENAI_API_KEY: for the openai provider
func NewFromEnv() Embedder {
	model := os.Getenv("MEMORY_BRAIN_EMBED_MODEL")
	switch os.Getenv("MEMORY_BRAIN_EMBED_PROVIDER") {
	case "ollama":
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(os.Getenv("MEMORY_BRAIN_EMBED_URL"), model)
	case "openai":
		return NewOpenAIEmbedder(os.Getenv("MEMORY_BRAIN_EMBED_URL"), os.Getenv("OPENAI_API_KEY"), model, 0)
	default:
		return nil // embeddings disabled
	}
}
