// Package registry loads the analyses config file describing the set of
// analysis runs a harness invocation should perform.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/openrobotics/ikos-harness/results"
)

// Analysis describes one named analysis run: which project it belongs to,
// the test name owning its output paths, and the extra arguments appended to
// the tool invocation.
type Analysis struct {
	Name      string   `yaml:"name"`
	Project   string   `yaml:"project,omitempty"`
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// analysesConfig is the on-disk shape of the analyses file.
type analysesConfig struct {
	Analyses []Analysis `yaml:"analyses"`
}

// Registry manages the configured analyses.
type Registry struct {
	config   Config
	analyses []Analysis
	mu       sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log              *slog.Logger
	AnalysesFile     string
	DefaultProject   string
	DefaultTestName  string
	DefaultExtraArgs []string
}

// NewRegistry creates a new registry instance. When no analyses file is
// configured the registry holds a single analysis synthesized from the
// defaults, which keeps the single-run CLI surface working unchanged.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	r := &Registry{config: cfg}

	if cfg.AnalysesFile == "" {
		r.analyses = []Analysis{{
			Name:      cfg.DefaultTestName,
			Project:   cfg.DefaultProject,
			ExtraArgs: cfg.DefaultExtraArgs,
		}}
		return r, nil
	}

	if err := r.loadAnalyses(cfg.AnalysesFile); err != nil {
		return nil, fmt.Errorf("failed to load analyses: %w", err)
	}

	cfg.Log.Debug("registry loaded", "len(analyses)", len(r.analyses))
	return r, nil
}

// loadAnalyses loads and validates the analyses config file.
func (r *Registry) loadAnalyses(cfgPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read analyses file %s: %w", cfgPath, err)
	}

	var cfg analysesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse analyses file %s: %w", cfgPath, err)
	}
	if len(cfg.Analyses) == 0 {
		return fmt.Errorf("analyses file %s defines no analyses", cfgPath)
	}

	seen := make(map[string]struct{}, len(cfg.Analyses))
	for i := range cfg.Analyses {
		a := &cfg.Analyses[i]
		if a.Project == "" {
			a.Project = r.config.DefaultProject
		}
		if err := results.ValidateName(a.Name); err != nil {
			return fmt.Errorf("analysis %d: invalid name: %w", i, err)
		}
		if err := results.ValidateName(a.Project); err != nil {
			return fmt.Errorf("analysis %q: invalid project: %w", a.Name, err)
		}
		// Distinct test names may never share an output path, so
		// duplicates are a config error, not a race waiting to happen.
		key := a.Project + "/" + a.Name
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate analysis %q for project %q", a.Name, a.Project)
		}
		seen[key] = struct{}{}
	}

	r.analyses = cfg.Analyses
	return nil
}

// Analyses returns the configured analyses.
func (r *Registry) Analyses() []Analysis {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.analyses
}
