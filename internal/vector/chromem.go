package vector

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/openclaw/memory-brain/internal/embedding"
)

// Chromem is an embedded, file-backed vector index for setups without a
// Qdrant server. Same contract as the remote backend: still derived,
// still rebuildable.
type Chromem struct {
	db       *chromem.DB
	embedder embedding.Embedder

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromem opens (or creates) a persistent chromem database at path.
func NewChromem(path string, embedder embedding.Embedder) (*Chromem, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &Chromem{
		db:          db,
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (c *Chromem) collection(name string) (*chromem.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.collections[name]; ok {
		return col, nil
	}
	// Embeddings are always supplied explicitly, so no embedding func.
	col, err := c.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	c.collections[name] = col
	return col, nil
}

func (c *Chromem) EnsureCollection(ctx context.Context, name string) error {
	_, err := c.collection(name)
	return err
}

func (c *Chromem) Upsert(ctx context.Context, collection, id, text string) error {
	col, err := c.collection(collection)
	if err != nil {
		return err
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed for upsert: %w", err)
	}
	doc := chromem.Document{ID: id, Content: text, Embedding: vec}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (c *Chromem) Search(ctx context.Context, collection, query string, topK int) ([]Match, error) {
	col, err := c.collection(collection)
	if err != nil {
		return nil, err
	}
	if n := col.Count(); n < topK {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}
	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := col.QueryEmbedding(ctx, vec, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	var matches []Match
	for _, r := range results {
		matches = append(matches, Match{
			Text:       r.Content,
			Score:      float64(r.Similarity),
			Collection: collection,
		})
	}
	return matches, nil
}

func (c *Chromem) Ping(ctx context.Context) error { return nil }
