// Package config loads the memory-brain YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Collection routes memories to a vector collection by keyword.
type Collection struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Vector configures the optional vector collaborator.
type Vector struct {
	// Backend: "qdrant", "chromem", or "off".
	Backend           string       `yaml:"backend"`
	URL               string       `yaml:"url"`
	TimeoutMS         int          `yaml:"timeout_ms"`
	DefaultCollection string       `yaml:"default_collection"`
	Collections       []Collection `yaml:"collections"`
}

// Retention holds the per-tier prune windows.
type Retention struct {
	DailyDays  int `yaml:"daily_days"`
	WeeklyDays int `yaml:"weekly_days"`
}

// Conflict configures the contradiction heuristic.
type Conflict struct {
	// ExclusiveTerms are groups of mutually exclusive choices; two
	// memories hitting different members of one group are candidates.
	ExclusiveTerms [][]string `yaml:"exclusive_terms"`
}

// Config is the full memory-brain configuration.
type Config struct {
	// Dir is the root of the canonical on-disk store.
	Dir       string    `yaml:"dir"`
	Vector    Vector    `yaml:"vector"`
	Retention Retention `yaml:"retention"`
	Conflict  Conflict  `yaml:"conflict"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Dir: filepath.Join(home, ".memory-brain"),
		Vector: Vector{
			Backend:           "off",
			URL:               "http://127.0.0.1:6333",
			TimeoutMS:         5000,
			DefaultCollection: "mem_general",
			Collections: []Collection{
				{Name: "mem_projects", Keywords: []string{"project", "task", "status", "goal"}},
				{Name: "mem_sessions", Keywords: []string{"session", "transcript", "conversation"}},
				{Name: "mem_distilled", Keywords: []string{"weekly", "summary", "distilled"}},
			},
		},
		Retention: Retention{DailyDays: 7, WeeklyDays: 60},
		Conflict: Conflict{
			ExclusiveTerms: [][]string{
				{"venv", "conda"},
				{"tabs", "spaces"},
				{"yes", "no"},
				{"enable", "disable"},
				{"always", "never"},
			},
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults are returned so the brain works with zero setup.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Vector.TimeoutMS <= 0 {
		cfg.Vector.TimeoutMS = 5000
	}
	if cfg.Retention.DailyDays <= 0 {
		cfg.Retention.DailyDays = 7
	}
	if cfg.Retention.WeeklyDays <= 0 {
		cfg.Retention.WeeklyDays = 60
	}
	return cfg, nil
}

// VectorTimeout returns the bounded timeout for collaborator calls.
func (c *Config) VectorTimeout() time.Duration {
	return time.Duration(c.Vector.TimeoutMS) * time.Millisecond
}

// CollectionFor routes text to a vector collection by keyword match,
// falling back to the default collection.
func (c *Config) CollectionFor(keywords []string) string {
	for _, coll := range c.Vector.Collections {
		for _, ck := range coll.Keywords {
			for _, k := range keywords {
				if k == ck {
					return coll.Name
				}
			}
		}
	}
	return c.Vector.DefaultCollection
}

// CollectionNames lists every configured collection, default first.
func (c *Config) CollectionNames() []string {
	names := []string{c.Vector.DefaultCollection}
	seen := map[string]bool{c.Vector.DefaultCollection: true}
	for _, coll := range c.Vector.Collections {
		if !seen[coll.Name] {
			seen[coll.Name] = true
			names = append(names, coll.Name)
		}
	}
	return names
}
