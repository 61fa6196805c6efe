package flock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir, "daily-2026-02-01")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "daily-2026-02-01.lock")); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	l.Release()
	if _, err := os.Stat(filepath.Join(dir, "daily-2026-02-01.lock")); !os.IsNotExist(err) {
		t.Error("lock file should be gone after release")
	}

	// Reacquire after release.
	l2, err := Acquire(dir, "daily-2026-02-01")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	l2.Release()
}

func TestContention(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir, "week-2026-01-26")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.Release()

	_, err = Acquire(dir, "week-2026-01-26")
	if !errors.Is(err, ErrContention) {
		t.Errorf("expected ErrContention, got %v", err)
	}
}

func TestIndependentResources(t *testing.T) {
	dir := t.TempDir()

	a, err := Acquire(dir, "daily-2026-02-01")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer a.Release()

	// A different resource must not contend.
	b, err := Acquire(dir, "daily-2026-02-02")
	if err != nil {
		t.Fatalf("acquire b: %v", err)
	}
	b.Release()
}

func TestStaleLockBroken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entity-dr_smith.lock")
	if err := os.WriteFile(path, []byte("999999\n"), 0o644); err != nil {
		t.Fatalf("plant stale lock: %v", err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("age lock: %v", err)
	}

	l, err := Acquire(dir, "entity-dr_smith")
	if err != nil {
		t.Fatalf("expected stale lock to be broken, got %v", err)
	}
	l.Release()
}

func TestDoubleReleaseIsSafe(t *testing.T) {
	dir := t.TempDir()
	l, err := Acquire(dir, "x")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	l.Release()
	l.Release()
}
