// Package flock provides scoped, per-resource exclusive file locks.
//
// A lock is a file created with O_EXCL under a shared lock directory, so
// it excludes writers in other processes as well as other goroutines.
// Writers take one lock per resource (a daily date, an entity slug, a
// consolidation period) and release it on every exit path.
package flock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrContention is returned when a lock is held by another writer after
// the single retry. Callers surface it as a transient condition.
var ErrContention = errors.New("lock contention")

// Stale locks older than this are broken. Nothing holding a lock in this
// system runs anywhere near this long.
const staleAfter = 30 * time.Second

const retryDelay = 50 * time.Millisecond

// Lock is a held resource lock.
type Lock struct {
	path string
}

// Acquire takes the exclusive lock named name under dir, retrying once
// on contention. Returns ErrContention if the lock is still held after
// the retry.
func Acquire(dir, name string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := filepath.Join(dir, name+".lock")

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			f.Close()
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire lock %s: %w", name, err)
		}
		// Break locks abandoned by a crashed writer.
		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > staleAfter {
			os.Remove(path)
			continue
		}
		if attempt == 0 {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("lock %s held by another writer: %w", name, ErrContention)
}

// Release drops the lock. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.path == "" {
		return
	}
	os.Remove(l.path)
	l.path = ""
}
