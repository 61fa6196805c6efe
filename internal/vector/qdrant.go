package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/memory-brain/internal/embedding"
)

// Qdrant talks to a Qdrant server over its REST API. Every call is
// bounded by the client timeout; transport failures surface as
// ErrUnavailable so callers can degrade instead of hanging.
type Qdrant struct {
	baseURL  string
	embedder embedding.Embedder
	client   *http.Client
}

// NewQdrant creates a Qdrant-backed index.
func NewQdrant(baseURL string, embedder embedding.Embedder, timeout time.Duration) *Qdrant {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Qdrant{
		baseURL:  baseURL,
		embedder: embedder,
		client:   &http.Client{Timeout: timeout},
	}
}

func (q *Qdrant) EnsureCollection(ctx context.Context, name string) error {
	payload := map[string]any{
		"vectors": map[string]any{"size": q.embedder.Dims(), "distance": "Cosine"},
	}
	status, _, err := q.do(ctx, "PUT", "/collections/"+name, payload)
	if err != nil {
		return err
	}
	// 409: collection already exists.
	if status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("create collection %s: status %d", name, status)
	}
	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, collection, id, text string) error {
	vec, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed for upsert: %w", err)
	}
	// Qdrant wants UUID point ids; derive one from the entry id so the
	// same entry always lands on the same point.
	pointID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
	payload := map[string]any{
		"points": []map[string]any{{
			"id":      pointID,
			"vector":  vec,
			"payload": map[string]string{"content": text},
		}},
	}
	status, _, err := q.do(ctx, "PUT", "/collections/"+collection+"/points?wait=true", payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("upsert into %s: status %d", collection, status)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, collection, query string, topK int) ([]Match, error) {
	vec, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	payload := map[string]any{
		"query":        vec,
		"limit":        topK,
		"with_payload": true,
	}
	status, body, err := q.do(ctx, "POST", "/collections/"+collection+"/points/query", payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil // collection never created: no matches
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search %s: status %d", collection, status)
	}

	var parsed struct {
		Result struct {
			Points []struct {
				Score   float64           `json:"score"`
				Payload map[string]string `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("search %s: decode: %w", collection, err)
	}
	var matches []Match
	for _, p := range parsed.Result.Points {
		matches = append(matches, Match{
			Text:       p.Payload["content"],
			Score:      p.Score,
			Collection: collection,
		})
	}
	return matches, nil
}

func (q *Qdrant) Ping(ctx context.Context) error {
	status, _, err := q.do(ctx, "GET", "/collections", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant status %d: %w", status, ErrUnavailable)
	}
	return nil
}

func (q *Qdrant) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := q.client.Do(req)
	if err != nil {
		// Connection refused, DNS failure, timeout: degraded mode.
		return 0, nil, fmt.Errorf("qdrant %s %s: %v: %w", method, path, err, ErrUnavailable)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("qdrant %s %s: %v: %w", method, path, err, ErrUnavailable)
	}
	return resp.StatusCode, b, nil
}
