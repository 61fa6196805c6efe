// Package cli implements the memory-brain CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory-brain/internal/config"
	"github.com/openclaw/memory-brain/internal/conflict"
	"github.com/openclaw/memory-brain/internal/consolidate"
	"github.com/openclaw/memory-brain/internal/embedding"
	"github.com/openclaw/memory-brain/internal/query"
	"github.com/openclaw/memory-brain/internal/quarantine"
	"github.com/openclaw/memory-brain/internal/registry"
	"github.com/openclaw/memory-brain/internal/store"
	"github.com/openclaw/memory-brain/internal/vector"
)

var (
	configPath string
	dirFlag    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memory-brain",
	Short: "Tiered, human-auditable memory for a conversational agent",
	Long: "Durable agent memory: daily markdown records, weekly/monthly consolidation,\n" +
		"entity quarantine, cross-tier query, and conflict detection.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config path (default: $MEMORY_BRAIN_CONFIG or ~/.memory-brain/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "Memory directory (overrides config)")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("MEMORY_BRAIN_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memory-brain", "config.yaml")
}

// app holds one wired-up brain for the duration of a command.
type app struct {
	cfg      *config.Config
	store    *store.Store
	reg      *registry.Registry
	quar     *quarantine.Quarantine
	engine   *consolidate.Engine
	embedder embedding.Embedder // nil when embeddings are disabled
	index    vector.Index       // nil when the backend is off or unconfigured
}

func openApp() (*app, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if dirFlag != "" {
		cfg.Dir = dirFlag
	}

	s, err := store.New(cfg.Dir)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(cfg.Dir)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		store:  s,
		reg:    reg,
		engine: consolidate.New(s, reg),
	}
	a.quar = quarantine.New(reg, s.LockDir(), nil, cfg.CollectionFor)
	if embedder := embedding.NewFromEnv(); embedder != nil {
		a.embedder = embedding.NewCached(embedder)
	}
	a.index = buildIndex(cfg, a.embedder)
	return a, nil
}

// buildIndex wires the configured vector backend, or nil. A missing
// embedder disables the vector tier the same way "off" does; queries
// then degrade rather than fail.
func buildIndex(cfg *config.Config, embedder embedding.Embedder) vector.Index {
	if embedder == nil {
		return nil
	}
	switch cfg.Vector.Backend {
	case "qdrant":
		return vector.NewQdrant(cfg.Vector.URL, embedder, cfg.VectorTimeout())
	case "chromem":
		idx, err := vector.NewChromem(filepath.Join(cfg.Dir, "vectors"), embedder)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: chromem backend unavailable: %v\n", err)
			return nil
		}
		return idx
	default:
		return nil
	}
}

func (a *app) Close() {
	if a.reg != nil {
		a.reg.Close()
	}
}

func (a *app) queryEngine() *query.Engine {
	return query.New(a.store, a.engine, a.index, a.cfg.CollectionNames(), a.cfg.VectorTimeout())
}

func (a *app) detector() *conflict.Detector {
	return conflict.New(a.store, a.engine, a.index, a.embedder, a.cfg.Conflict.ExclusiveTerms, a.cfg.VectorTimeout())
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
