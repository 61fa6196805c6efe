package quarantine

import (
	"context"
	"errors"
	"testing"

	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/registry"
)

func newTestQuarantine(t *testing.T) *Quarantine {
	t.Helper()
	dir := t.TempDir()
	reg, err := registry.Open(dir)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return New(reg, dir, nil, nil)
}

func TestExtractHeuristic(t *testing.T) {
	h := NewHeuristic(nil)
	tests := []struct {
		text string
		want []string
	}{
		{"met Dr. Smith at the clinic", []string{"Dr. Smith"}},
		{"Weekly Report covers Project Atlas", []string{"Weekly Report", "Project Atlas"}},
		{"The Big Meeting ran long", nil}, // leading stop word rejects the whole run
		{"nothing capitalized here", nil},
		{"I went home. We left early.", nil}, // stop words filtered
		{"call Sarah Chen and Sarah Chen again", []string{"Sarah Chen"}},
	}
	for _, tt := range tests {
		got := h.Extract(tt.text)
		if len(got) != len(tt.want) {
			t.Errorf("Extract(%q) = %v, want names %v", tt.text, got, tt.want)
			continue
		}
		for i, w := range tt.want {
			if got[i].Name != w {
				t.Errorf("Extract(%q)[%d] = %q, want %q", tt.text, i, got[i].Name, w)
			}
		}
	}
}

func TestExtractWatchList(t *testing.T) {
	h := NewHeuristic([]string{"kubernetes"})
	got := h.Extract("deployed to kubernetes last night")
	if len(got) != 1 || got[0].Name != "kubernetes" {
		t.Fatalf("got %v", got)
	}
}

func TestDiscoverQuarantines(t *testing.T) {
	ctx := context.Background()
	q := newTestQuarantine(t)

	res, err := q.Discover(ctx, "met Dr. Smith about Project Atlas")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(res.Quarantined) != 2 || len(res.AlreadyKnown) != 0 {
		t.Fatalf("got %d quarantined, %d known", len(res.Quarantined), len(res.AlreadyKnown))
	}

	// Spelling variants share a slug; the second mention is a no-op.
	res, err = q.Discover(ctx, "Dr Smith called back")
	if err != nil {
		t.Fatalf("rediscover: %v", err)
	}
	if len(res.Quarantined) != 0 || len(res.AlreadyKnown) != 1 {
		t.Fatalf("got %d quarantined, %d known", len(res.Quarantined), len(res.AlreadyKnown))
	}

	entities, err := q.List(ctx, model.StatusQuarantined)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entities) != 2 {
		t.Errorf("expected 2 quarantined entities, got %d", len(entities))
	}
}

func TestValidateMovesOutOfQuarantine(t *testing.T) {
	ctx := context.Background()
	q := newTestQuarantine(t)

	if _, err := q.Discover(ctx, "met Dr. Smith today"); err != nil {
		t.Fatalf("discover: %v", err)
	}

	e, err := q.Validate(ctx, "Dr. Smith", "mem_people")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if e.Status != model.StatusValidated || e.TargetCollection != "mem_people" {
		t.Errorf("got %+v", e)
	}
	if e.ValidatedAt == nil {
		t.Error("ValidatedAt not set")
	}

	quarantined, _ := q.List(ctx, model.StatusQuarantined)
	if len(quarantined) != 0 {
		t.Errorf("entity still quarantined: %v", quarantined)
	}
	validated, _ := q.List(ctx, model.StatusValidated)
	if len(validated) != 1 {
		t.Errorf("expected 1 validated, got %d", len(validated))
	}
}

func TestValidateIdempotentSameTarget(t *testing.T) {
	ctx := context.Background()
	q := newTestQuarantine(t)

	if _, err := q.Discover(ctx, "met Dr. Smith today"); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if _, err := q.Validate(ctx, "Dr. Smith", "mem_people"); err != nil {
		t.Fatalf("first validate: %v", err)
	}

	// Same target, and empty target, both succeed without change.
	if _, err := q.Validate(ctx, "Dr. Smith", "mem_people"); err != nil {
		t.Errorf("same-target revalidation: %v", err)
	}
	if _, err := q.Validate(ctx, "Dr. Smith", ""); err != nil {
		t.Errorf("empty-target revalidation: %v", err)
	}
}

func TestValidateConflictingTarget(t *testing.T) {
	ctx := context.Background()
	q := newTestQuarantine(t)

	if _, err := q.Discover(ctx, "met Dr. Smith today"); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if _, err := q.Validate(ctx, "Dr. Smith", "mem_people"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	_, err := q.Validate(ctx, "Dr. Smith", "mem_projects")
	if !errors.Is(err, ErrConflictingValidation) {
		t.Errorf("expected ErrConflictingValidation, got %v", err)
	}
}

func TestValidateUnknown(t *testing.T) {
	q := newTestQuarantine(t)
	_, err := q.Validate(context.Background(), "Nobody Home", "mem_people")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateByKeyword(t *testing.T) {
	ctx := context.Background()
	q := newTestQuarantine(t)

	if _, err := q.Discover(ctx, "met Dr. Smith today"); err != nil {
		t.Fatalf("discover: %v", err)
	}

	// A single token from the name resolves through keywords.
	e, err := q.Validate(ctx, "smith", "mem_people")
	if err != nil {
		t.Fatalf("validate by keyword: %v", err)
	}
	if e.Slug != "dr_smith" {
		t.Errorf("matched %q", e.Slug)
	}
}

func TestDiscoverRoutesTarget(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	reg, err := registry.Open(dir)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	defer reg.Close()

	targetFor := func(keywords []string) string {
		for _, k := range keywords {
			if k == "smith" {
				return "mem_people"
			}
		}
		return ""
	}
	q := New(reg, dir, nil, targetFor)

	if _, err := q.Discover(ctx, "met Dr. Smith today"); err != nil {
		t.Fatalf("discover: %v", err)
	}
	e, err := q.Validate(ctx, "Dr. Smith", "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if e.TargetCollection != "mem_people" {
		t.Errorf("target = %q, want mem_people", e.TargetCollection)
	}
}
