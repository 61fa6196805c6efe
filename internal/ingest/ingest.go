// Package ingest consumes the ingestion collaborator's record stream: a
// sequence of {text, timestamp, role} records per external session.
// Parsing the transcript format itself is the collaborator's job; this
// package only files qualifying records into the daily tier.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/quarantine"
	"github.com/openclaw/memory-brain/internal/store"
	"github.com/openclaw/memory-brain/internal/trigger"
)

// Record is one ingestion-collaborator record.
type Record struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
}

// Records too short to be memory-worthy are skipped. Mirrors the
// upstream length filter so a misbehaving collaborator cannot flood the
// daily tier with fragments.
const minTextLen = 20

// Result reports what one ingestion pass did.
type Result struct {
	Saved       int `json:"saved"`
	Skipped     int `json:"skipped"`
	Quarantined int `json:"quarantined"`
}

// Ingestor files collaborator records into the brain.
type Ingestor struct {
	store *store.Store
	quar  *quarantine.Quarantine
}

// New creates an ingestor. quar may be nil to skip entity discovery.
func New(s *store.Store, quar *quarantine.Quarantine) *Ingestor {
	return &Ingestor{store: s, quar: quar}
}

// Ingest saves each qualifying record, role-agnostic. Trigger phrases
// take their rule's category and importance (source=trigger); everything
// else files as general/normal (source=ingest). Entity discovery runs
// over the saved text, best effort.
func (in *Ingestor) Ingest(ctx context.Context, records []Record) (*Result, error) {
	res := &Result{}
	for _, rec := range records {
		text := strings.TrimSpace(rec.Text)
		if len(text) < minTextLen {
			res.Skipped++
			continue
		}
		ts := rec.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}

		entry := model.Entry{
			Timestamp:  ts,
			Category:   model.CategoryGeneral,
			Importance: model.ImportanceNormal,
			Text:       text,
			Source:     model.SourceIngest,
		}
		if hit := trigger.Detect(text); hit != nil {
			entry.Text = hit.Content
			entry.Category = hit.Category
			entry.Importance = hit.Importance
			entry.Source = model.SourceTrigger
		}
		if err := in.store.Append(entry); err != nil {
			return res, fmt.Errorf("ingest record at %s: %w", model.DateOf(ts), err)
		}
		res.Saved++

		if in.quar != nil {
			if dr, err := in.quar.Discover(ctx, text); err == nil {
				res.Quarantined += len(dr.Quarantined)
			}
		}
	}
	return res, nil
}

// DecodeJSONL reads one record per line, skipping blank lines. This is
// the wire shape of the consumed collaborator interface, not the
// transcript format.
func DecodeJSONL(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("record on line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
