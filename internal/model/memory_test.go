package model

import (
	"testing"
	"time"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Dr. Smith", "dr_smith"},
		{"dr smith", "dr_smith"},
		{"DR  SMITH", "dr_smith"},
		{"Project Atlas", "project_atlas"},
		{"project-atlas", "project_atlas"},
		{"O'Brien", "obrien"},
		{"  trailing  ", "trailing"},
		{"", ""},
		{"...", ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  We   Use\tVenv "); got != "we use venv" {
		t.Errorf("got %q", got)
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2026, 2, 1, 23, 59, 0, 0, time.Local)
	if got := DateOf(ts); got != "2026-02-01" {
		t.Errorf("got %q", got)
	}
}
