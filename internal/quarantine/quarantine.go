// Package quarantine manages the entity lifecycle: discovered entities
// are held quarantined until a human or calling agent validates them,
// and validation moves them to the validated partition.
package quarantine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/memory-brain/internal/flock"
	"github.com/openclaw/memory-brain/internal/model"
	"github.com/openclaw/memory-brain/internal/registry"
)

var (
	// ErrNotFound means no quarantined entity matched the given name.
	ErrNotFound = errors.New("entity not found")

	// ErrConflictingValidation means the entity is already validated
	// with a different target collection. The target never changes
	// silently; the caller must re-issue explicitly.
	ErrConflictingValidation = errors.New("conflicting validation")
)

// Quarantine is the entity lifecycle manager.
type Quarantine struct {
	reg       *registry.Registry
	lockDir   string
	extractor Extractor

	// targetFor infers a validation target collection from an entity's
	// keywords when the caller does not name one.
	targetFor func(keywords []string) string
}

// New creates a quarantine over the given registry. extractor may be nil
// (the default heuristic with no watch list is used). targetFor may be
// nil (inferred targets default to empty).
func New(reg *registry.Registry, lockDir string, extractor Extractor, targetFor func([]string) string) *Quarantine {
	if extractor == nil {
		extractor = NewHeuristic(nil)
	}
	if targetFor == nil {
		targetFor = func([]string) string { return "" }
	}
	return &Quarantine{reg: reg, lockDir: lockDir, extractor: extractor, targetFor: targetFor}
}

// DiscoverResult splits discovery output into newly quarantined entities
// and entities that were already known (quarantined or validated).
type DiscoverResult struct {
	Quarantined  []model.Entity `json:"quarantined"`
	AlreadyKnown []model.Entity `json:"already_known"`
}

// Discover extracts entity candidates from text and quarantines every
// new one with the text as its originating context. Pre-existing
// entities are reported, not touched.
func (q *Quarantine) Discover(ctx context.Context, text string) (*DiscoverResult, error) {
	res := &DiscoverResult{}
	for _, cand := range q.extractor.Extract(text) {
		e, created, err := q.discoverOne(ctx, cand, text)
		if err != nil {
			return nil, err
		}
		if created {
			res.Quarantined = append(res.Quarantined, *e)
		} else {
			res.AlreadyKnown = append(res.AlreadyKnown, *e)
		}
	}
	return res, nil
}

func (q *Quarantine) discoverOne(ctx context.Context, cand Candidate, text string) (*model.Entity, bool, error) {
	slug := model.Slug(cand.Name)
	lock, err := flock.Acquire(q.lockDir, "entity-"+slug)
	if err != nil {
		return nil, false, fmt.Errorf("discover %q: %w", cand.Name, err)
	}
	defer lock.Release()

	existing, err := q.reg.GetEntity(ctx, slug)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("discover %q: %w", cand.Name, err)
	}

	e := model.Entity{
		Name:         cand.Name,
		Slug:         slug,
		Keywords:     cand.Keywords,
		Status:       model.StatusQuarantined,
		DiscoveredAt: time.Now().Truncate(time.Second),
		Context:      text,
	}
	if err := q.reg.InsertEntity(ctx, e); err != nil {
		return nil, false, fmt.Errorf("quarantine %q: %w", cand.Name, err)
	}
	return &e, true, nil
}

// List returns entities in a status partition ordered by discovery time.
func (q *Quarantine) List(ctx context.Context, status string) ([]model.Entity, error) {
	return q.reg.ListEntities(ctx, status)
}

// Validate moves a quarantined entity to the validated partition. The
// match is case-insensitive and keyword-aware. Re-validating with the
// same target is a no-op; a different target is ErrConflictingValidation.
func (q *Quarantine) Validate(ctx context.Context, name, targetCollection string) (*model.Entity, error) {
	e, err := q.match(ctx, name)
	if err != nil {
		return nil, err
	}

	lock, err := flock.Acquire(q.lockDir, "entity-"+e.Slug)
	if err != nil {
		return nil, fmt.Errorf("validate %q: %w", name, err)
	}
	defer lock.Release()

	// Re-read under the lock; a concurrent validate may have won.
	e, err = q.reg.GetEntity(ctx, e.Slug)
	if err != nil {
		return nil, fmt.Errorf("validate %q: %w", name, err)
	}

	if e.Status == model.StatusValidated {
		if targetCollection == "" || targetCollection == e.TargetCollection {
			return e, nil
		}
		return nil, fmt.Errorf("entity %q already validated into %q, not %q: %w",
			e.Name, e.TargetCollection, targetCollection, ErrConflictingValidation)
	}

	if targetCollection == "" {
		targetCollection = q.targetFor(e.Keywords)
	}
	now := time.Now().Truncate(time.Second)
	if err := q.reg.PromoteEntity(ctx, e.Slug, targetCollection, now); err != nil {
		return nil, fmt.Errorf("validate %q: %w", name, err)
	}
	e.Status = model.StatusValidated
	e.ValidatedAt = &now
	e.TargetCollection = targetCollection
	return e, nil
}

// match resolves a user-supplied name to an entity: exact slug first,
// then a keyword scan over both partitions.
func (q *Quarantine) match(ctx context.Context, name string) (*model.Entity, error) {
	slug := model.Slug(name)
	if e, err := q.reg.GetEntity(ctx, slug); err == nil {
		return e, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	for _, status := range []string{model.StatusQuarantined, model.StatusValidated} {
		entities, err := q.reg.ListEntities(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("lookup %q: %w", name, err)
		}
		for i := range entities {
			for _, kw := range entities[i].Keywords {
				if kw == needle || kw == slug {
					return &entities[i], nil
				}
			}
		}
	}
	return nil, fmt.Errorf("no quarantined entity matches %q: %w", name, ErrNotFound)
}
