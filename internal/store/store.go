// Package store implements the daily tier: one human-readable markdown
// file per calendar date, append-only from the caller's perspective.
//
// The daily files are the ground truth of the memory system. Writes are
// atomic (temp file + rename) and serialized per date by a file lock, so
// a reader never observes a half-written file and concurrent appends
// never lose entries.
package store

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/openclaw/memory-brain/internal/flock"
	"github.com/openclaw/memory-brain/internal/model"
)

var (
	// ErrNotFound means no daily file exists for the requested date.
	// Query paths treat it as "empty", not as a hard error.
	ErrNotFound = errors.New("not found")

	// ErrWrite means the daily tier could not be written. The target
	// file is left exactly as it was before the call.
	ErrWrite = errors.New("write error")
)

// Store is the daily-tier record keeper rooted at a memory directory.
type Store struct {
	dir string

	// entropyMu guards entropy: math/rand sources are not safe for
	// concurrent use and appends mint IDs from any goroutine.
	entropyMu sync.Mutex
	entropy   *rand.Rand

	// In-process writers to the same date queue on a mutex; the file
	// lock only has to exclude other processes.
	mu    sync.Mutex
	dates map[string]*sync.Mutex
}

// New opens (creating if needed) the daily tier under dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "daily"), 0o755); err != nil {
		return nil, fmt.Errorf("create daily dir: %w", err)
	}
	return &Store{
		dir:     dir,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		dates:   make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) dateLock(date string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.dates[date]; ok {
		return m
	}
	m := &sync.Mutex{}
	s.dates[date] = m
	return m
}

// Dir returns the memory root directory.
func (s *Store) Dir() string { return s.dir }

// LockDir is the shared lock directory for all writers under this root.
func (s *Store) LockDir() string { return filepath.Join(s.dir, ".locks") }

func (s *Store) dailyPath(date string) string {
	return filepath.Join(s.dir, "daily", date+".md")
}

// NewID mints a ULID for a new entry.
func (s *Store) NewID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Append files entry into the daily file for its date, creating the file
// if absent and keeping entries in non-decreasing timestamp order. The
// write is all-or-nothing: on any error the file is unchanged.
func (s *Store) Append(entry model.Entry) error {
	if entry.Text == "" {
		return fmt.Errorf("%w: empty entry text", ErrWrite)
	}
	if !model.ValidCategories[entry.Category] {
		return fmt.Errorf("%w: invalid category %q", ErrWrite, entry.Category)
	}
	if !model.ValidImportances[entry.Importance] {
		return fmt.Errorf("%w: invalid importance %q", ErrWrite, entry.Importance)
	}
	if !model.ValidSources[entry.Source] {
		return fmt.Errorf("%w: invalid source %q", ErrWrite, entry.Source)
	}
	if entry.ID == "" {
		entry.ID = s.NewID()
	}
	entry.Timestamp = entry.Timestamp.Truncate(time.Second)

	date := model.DateOf(entry.Timestamp)
	mu := s.dateLock(date)
	mu.Lock()
	defer mu.Unlock()

	lock, err := flock.Acquire(s.LockDir(), "daily-"+date)
	if err != nil {
		return fmt.Errorf("append %s: %w", date, err)
	}
	defer lock.Release()

	entries, err := s.readLocked(date)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	// Insert in timestamp order; equal timestamps keep arrival order.
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].Timestamp.After(entry.Timestamp)
	})
	entries = append(entries, model.Entry{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = entry

	if err := s.writeDaily(date, entries); err != nil {
		return fmt.Errorf("append %s: %w", date, err)
	}
	return nil
}

// Read returns the entries for date in timestamp order. A missing file
// is ErrNotFound.
func (s *Store) Read(date string) ([]model.Entry, error) {
	return s.readLocked(date)
}

func (s *Store) readLocked(date string) ([]model.Entry, error) {
	data, err := os.ReadFile(s.dailyPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("daily file %s: %w", date, ErrNotFound)
		}
		return nil, fmt.Errorf("read daily %s: %w", date, err)
	}
	return parseDaily(date, string(data))
}

// ListDates returns the dates (YYYY-MM-DD) that have a daily file in the
// inclusive [from, to] range, ascending. Empty bounds are unbounded.
func (s *Store) ListDates(from, to string) ([]string, error) {
	glob, err := filepath.Glob(filepath.Join(s.dir, "daily", "*.md"))
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, path := range glob {
		date := filepath.Base(path)
		date = date[:len(date)-len(".md")]
		if _, perr := time.Parse("2006-01-02", date); perr != nil {
			continue
		}
		if from != "" && date < from {
			continue
		}
		if to != "" && date > to {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// DeleteDaily moves the daily file for date out of the tier, into the
// archive directory. Only the consolidation engine calls this, and only
// for dates captured by a committed weekly summary.
func (s *Store) DeleteDaily(date string) error {
	mu := s.dateLock(date)
	mu.Lock()
	defer mu.Unlock()

	lock, err := flock.Acquire(s.LockDir(), "daily-"+date)
	if err != nil {
		return fmt.Errorf("delete %s: %w", date, err)
	}
	defer lock.Release()

	src := s.dailyPath(date)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("daily file %s: %w", date, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", date, err)
	}
	archive := filepath.Join(s.dir, "archive")
	if err := os.MkdirAll(archive, 0o755); err != nil {
		return fmt.Errorf("%w: create archive dir: %v", ErrWrite, err)
	}
	if err := os.Rename(src, filepath.Join(archive, date+".md")); err != nil {
		return fmt.Errorf("%w: archive %s: %v", ErrWrite, date, err)
	}
	return nil
}

// writeDaily renders entries and atomically replaces the daily file.
func (s *Store) writeDaily(date string, entries []model.Entry) error {
	path := s.dailyPath(date)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+date+"-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(renderDaily(date, entries)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
