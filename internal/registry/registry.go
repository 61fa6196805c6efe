// Package registry is the bookkeeping database for the memory brain:
// the entity table (quarantined/validated partitions) and the commit
// records of the consolidation state machine.
//
// Daily, weekly, and monthly content lives in human-readable markdown
// files; the registry only records lifecycle state about them. A weekly
// or monthly row exists if and only if that period's summary was
// committed — in-progress consolidation is never persisted here.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openclaw/memory-brain/internal/model"
)

// Registry wraps the brain.db SQLite database.
type Registry struct {
	db *sql.DB
}

// Open opens or creates brain.db under the memory root.
func Open(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	dbPath := filepath.Join(dir, "brain.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	r := &Registry{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate registry: %w", err)
	}
	return r, nil
}

func (r *Registry) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		slug              TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		status            TEXT NOT NULL,
		keywords          TEXT,
		discovered_at     TEXT NOT NULL,
		validated_at      TEXT,
		context           TEXT,
		target_collection TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entities_status ON entities(status, discovered_at);

	CREATE TABLE IF NOT EXISTS weekly_summaries (
		week_start   TEXT PRIMARY KEY,
		week_end     TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		source_dates TEXT NOT NULL,
		content_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS monthly_summaries (
		month        TEXT PRIMARY KEY,
		generated_at TEXT NOT NULL,
		source_weeks TEXT NOT NULL,
		content_hash TEXT NOT NULL
	);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database.
func (r *Registry) Close() error { return r.db.Close() }

// --- entities ---

// InsertEntity adds a new entity row. The slug primary key enforces that
// a quarantined and a validated entity never coexist under one name.
func (r *Registry) InsertEntity(ctx context.Context, e model.Entity) error {
	keywords, _ := json.Marshal(e.Keywords)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entities (slug, name, status, keywords, discovered_at, context, target_collection)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Slug, e.Name, e.Status, string(keywords),
		e.DiscoveredAt.UTC().Format(time.RFC3339), e.Context, e.TargetCollection)
	if err != nil {
		return fmt.Errorf("insert entity %s: %w", e.Slug, err)
	}
	return nil
}

// GetEntity returns the entity with the given slug, or sql.ErrNoRows.
func (r *Registry) GetEntity(ctx context.Context, slug string) (*model.Entity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT slug, name, status, keywords, discovered_at, validated_at, context, target_collection
		 FROM entities WHERE slug = ?`, slug)
	return scanEntity(row)
}

// ListEntities returns entities in one status partition, ordered by
// discovery time ascending.
func (r *Registry) ListEntities(ctx context.Context, status string) ([]model.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slug, name, status, keywords, discovered_at, validated_at, context, target_collection
		 FROM entities WHERE status = ? ORDER BY discovered_at ASC, slug ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// PromoteEntity flips an entity from quarantined to validated in place:
// a move between partitions, never a copy.
func (r *Registry) PromoteEntity(ctx context.Context, slug, targetCollection string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entities SET status = ?, validated_at = ?, target_collection = ?
		 WHERE slug = ? AND status = ?`,
		model.StatusValidated, at.UTC().Format(time.RFC3339), targetCollection,
		slug, model.StatusQuarantined)
	if err != nil {
		return fmt.Errorf("promote entity %s: %w", slug, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountEntities returns the number of entities in a status partition.
func (r *Registry) CountEntities(ctx context.Context, status string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entities WHERE status = ?`, status).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row scanner) (*model.Entity, error) {
	var e model.Entity
	var keywords, validatedAt, ectx, target sql.NullString
	var discoveredAt string
	err := row.Scan(&e.Slug, &e.Name, &e.Status, &keywords, &discoveredAt, &validatedAt, &ectx, &target)
	if err != nil {
		return nil, err
	}
	e.DiscoveredAt, _ = time.Parse(time.RFC3339, discoveredAt)
	if keywords.Valid {
		json.Unmarshal([]byte(keywords.String), &e.Keywords)
	}
	if validatedAt.Valid {
		t, _ := time.Parse(time.RFC3339, validatedAt.String)
		e.ValidatedAt = &t
	}
	if ectx.Valid {
		e.Context = ectx.String
	}
	if target.Valid {
		e.TargetCollection = target.String
	}
	return &e, nil
}

// --- consolidation commit records ---

// WeekRecord is the commit record of one weekly consolidation.
type WeekRecord struct {
	WeekStart   string
	WeekEnd     string
	GeneratedAt time.Time
	SourceDates []string
	ContentHash string
}

// MonthRecord is the commit record of one monthly consolidation.
type MonthRecord struct {
	Month       string
	GeneratedAt time.Time
	SourceWeeks []string
	ContentHash string
}

// CommitWeekly records (or replaces) the commit row for a week.
func (r *Registry) CommitWeekly(ctx context.Context, w WeekRecord) error {
	dates, _ := json.Marshal(w.SourceDates)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO weekly_summaries (week_start, week_end, generated_at, source_dates, content_hash)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(week_start) DO UPDATE SET
		   week_end = excluded.week_end,
		   generated_at = excluded.generated_at,
		   source_dates = excluded.source_dates,
		   content_hash = excluded.content_hash`,
		w.WeekStart, w.WeekEnd, w.GeneratedAt.UTC().Format(time.RFC3339),
		string(dates), w.ContentHash)
	if err != nil {
		return fmt.Errorf("commit weekly %s: %w", w.WeekStart, err)
	}
	return nil
}

// GetWeekly returns the commit record for a week, or nil if the week was
// never consolidated.
func (r *Registry) GetWeekly(ctx context.Context, weekStart string) (*WeekRecord, error) {
	var w WeekRecord
	var generatedAt, dates string
	err := r.db.QueryRowContext(ctx,
		`SELECT week_start, week_end, generated_at, source_dates, content_hash
		 FROM weekly_summaries WHERE week_start = ?`, weekStart).
		Scan(&w.WeekStart, &w.WeekEnd, &generatedAt, &dates, &w.ContentHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	json.Unmarshal([]byte(dates), &w.SourceDates)
	return &w, nil
}

// ListWeekly returns all weekly commit records, oldest first.
func (r *Registry) ListWeekly(ctx context.Context) ([]WeekRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT week_start, week_end, generated_at, source_dates, content_hash
		 FROM weekly_summaries ORDER BY week_start ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeekRecord
	for rows.Next() {
		var w WeekRecord
		var generatedAt, dates string
		if err := rows.Scan(&w.WeekStart, &w.WeekEnd, &generatedAt, &dates, &w.ContentHash); err != nil {
			return nil, err
		}
		w.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
		json.Unmarshal([]byte(dates), &w.SourceDates)
		out = append(out, w)
	}
	return out, rows.Err()
}

// CommitMonthly records (or replaces) the commit row for a month.
func (r *Registry) CommitMonthly(ctx context.Context, m MonthRecord) error {
	weeks, _ := json.Marshal(m.SourceWeeks)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_summaries (month, generated_at, source_weeks, content_hash)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(month) DO UPDATE SET
		   generated_at = excluded.generated_at,
		   source_weeks = excluded.source_weeks,
		   content_hash = excluded.content_hash`,
		m.Month, m.GeneratedAt.UTC().Format(time.RFC3339), string(weeks), m.ContentHash)
	if err != nil {
		return fmt.Errorf("commit monthly %s: %w", m.Month, err)
	}
	return nil
}

// GetMonthly returns the commit record for a month, or nil.
func (r *Registry) GetMonthly(ctx context.Context, month string) (*MonthRecord, error) {
	var m MonthRecord
	var generatedAt, weeks string
	err := r.db.QueryRowContext(ctx,
		`SELECT month, generated_at, source_weeks, content_hash
		 FROM monthly_summaries WHERE month = ?`, month).
		Scan(&m.Month, &generatedAt, &weeks, &m.ContentHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	json.Unmarshal([]byte(weeks), &m.SourceWeeks)
	return &m, nil
}
