// Package config loads the engine's YAML configuration (spec.md §6
// "Configuration knobs"), mirroring the original Python implementation's
// config.yaml pattern. All validation happens eagerly at Load — a malformed
// config never surfaces mid-run (spec.md §7 "Configuration error ... fatal,
// reported before any work").
package config

import (
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"walkability/internal/model"
)

// Optimization holds the allocator's tunables (spec.md §6 "Configuration
// knobs").
type Optimization struct {
	K                     int      `yaml:"k"`
	Categories            []string `yaml:"categories"`
	DInfinityM            float64  `yaml:"d_infinity_m"`
	NeighborhoodRadiusM   float64  `yaml:"neighborhood_radius_m"`
	DeterministicTiebreak bool     `yaml:"deterministic_tiebreak"`
	Parallelism           int      `yaml:"parallelism"`
}

// Scoring holds the PWL breakpoint/value pair.
type Scoring struct {
	Breakpoints []float64 `yaml:"breakpoints"`
	Values      []float64 `yaml:"values"`
}

// CategoryEntry is one category's weighting config entry.
type CategoryEntry struct {
	Kind           string    `yaml:"kind"` // "plain" | "depth"
	CategoryWeight float64   `yaml:"category_weight"`
	RankWeights    []float64 `yaml:"rank_weights,omitempty"`
}

// Config is the full engine configuration.
type Config struct {
	Optimization Optimization             `yaml:"optimization"`
	Scoring      Scoring                  `yaml:"scoring"`
	Categories   map[string]CategoryEntry `yaml:"categories"`
}

// defaults mirror spec.md §6's stated defaults.
const (
	defaultDInfinityM          = 2400.0
	defaultNeighborhoodRadiusM = 3000.0
)

// Load reads and validates a Config from a YAML file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %q", path)
	}
	return Parse(raw)
}

// Parse reads and validates a Config from raw YAML bytes.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "parse config YAML")
	}

	if c.Optimization.DInfinityM <= 0 {
		c.Optimization.DInfinityM = defaultDInfinityM
	}
	if c.Optimization.NeighborhoodRadiusM <= 0 {
		c.Optimization.NeighborhoodRadiusM = defaultNeighborhoodRadiusM
	}
	if c.Optimization.Parallelism <= 0 {
		c.Optimization.Parallelism = 1
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Optimization.K <= 0 {
		return errors.Wrap(model.ErrConfigInvalid, "optimization.k must be >= 1")
	}
	if len(c.Optimization.Categories) == 0 {
		return errors.Wrap(model.ErrConfigInvalid, "optimization.categories must not be empty")
	}
	if c.Optimization.NeighborhoodRadiusM < c.Optimization.DInfinityM {
		return errors.Wrapf(model.ErrConfigInvalid,
			"optimization.neighborhood_radius_m (%f) must be >= d_infinity_m (%f): a smaller radius would prune residents the PWL horizon still considers reachable",
			c.Optimization.NeighborhoodRadiusM, c.Optimization.DInfinityM)
	}
	if len(c.Scoring.Breakpoints) < 2 {
		return errors.Wrap(model.ErrConfigInvalid, "scoring.breakpoints requires at least two entries")
	}
	if len(c.Scoring.Breakpoints) != len(c.Scoring.Values) {
		return errors.Wrapf(model.ErrConfigInvalid, "scoring.breakpoints (%d) and scoring.values (%d) length mismatch",
			len(c.Scoring.Breakpoints), len(c.Scoring.Values))
	}
	if !sort.Float64sAreSorted(c.Scoring.Breakpoints) {
		return errors.Wrap(model.ErrConfigInvalid, "scoring.breakpoints must be non-decreasing")
	}

	if len(c.Categories) == 0 {
		return errors.Wrap(model.ErrConfigInvalid, "categories must declare at least one weighting entry")
	}
	for _, name := range c.Optimization.Categories {
		if _, ok := c.Categories[name]; !ok {
			return errors.Wrapf(model.ErrUnknownCategory, "optimization.categories references %q with no entry in categories", name)
		}
	}
	for name, entry := range c.Categories {
		switch entry.Kind {
		case "plain":
			if len(entry.RankWeights) != 0 {
				return errors.Wrapf(model.ErrConfigInvalid, "category %q is plain but declares rank_weights", name)
			}
		case "depth":
			if len(entry.RankWeights) == 0 {
				return errors.Wrapf(model.ErrConfigInvalid, "category %q is depth but declares no rank_weights: depth weights are required, never defaulted", name)
			}
		default:
			return errors.Wrapf(model.ErrConfigInvalid, "category %q has unknown kind %q", name, entry.Kind)
		}
		if entry.CategoryWeight < 0 {
			return errors.Wrapf(model.ErrConfigInvalid, "category %q has negative category_weight", name)
		}
	}

	return nil
}

// Weightings converts every declared category entry into a
// model.CategoryWeighting value, including categories not listed in
// optimization.categories. The order of the returned values is not defined.
func (c *Config) Weightings() []model.CategoryWeighting {
	out := make([]model.CategoryWeighting, 0, len(c.Categories))
	for name, entry := range c.Categories {
		kind := model.KindPlain
		if entry.Kind == "depth" {
			kind = model.KindDepth
		}
		out = append(out, model.CategoryWeighting{
			Category:       model.Category(name),
			Kind:           kind,
			CategoryWeight: entry.CategoryWeight,
			RankWeights:    entry.RankWeights,
		})
	}
	return out
}

// ActiveCategories returns optimization.categories as model.Category values.
func (c *Config) ActiveCategories() []model.Category {
	out := make([]model.Category, len(c.Optimization.Categories))
	for i, name := range c.Optimization.Categories {
		out[i] = model.Category(name)
	}
	return out
}
