package evolution

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"milestone/meta"
	"milestone/searcher"
	"milestone/tournament"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of an evolutionary run.
type Config struct {
	PopulationSize      int     `yaml:"population_size"`
	Matches             int     `yaml:"matches"`
	Retained            int     `yaml:"retained"`
	ChildrenPerRetained int     `yaml:"children_per_retained"`
	MaxGenerations      int     `yaml:"max_generations"` // absolute, counted across resumes
	PerturbationMax     float64 `yaml:"perturbation_max"`
	PerturbationDecay   float64 `yaml:"perturbation_decay"`
	RandomWeightMax     float64 `yaml:"random_weight_max"`
	KFactor             float64 `yaml:"k_factor"`
	InitialRating       int     `yaml:"initial_rating"`
	Workers             int     `yaml:"workers"`
	Seed                uint64  `yaml:"seed"` // 0 seeds from the clock
	MaxMoves            int     `yaml:"max_moves"`

	// AgentTime takes precedence over AgentDepth when positive.
	AgentDepth int           `yaml:"agent_depth"`
	AgentTime  time.Duration `yaml:"agent_time"`
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:      meta.POPULATION_SIZE,
		Matches:             meta.MATCHES,
		Retained:            meta.RETAINED,
		ChildrenPerRetained: meta.CHILDREN_PER_RETAINED,
		MaxGenerations:      10,
		PerturbationMax:     meta.PERTURBATION_MAX,
		PerturbationDecay:   meta.PERTURBATION_DECAY,
		RandomWeightMax:     meta.RANDOM_WEIGHT_MAX,
		KFactor:             meta.K_FACTOR,
		InitialRating:       meta.INITIAL_RATING,
		Workers:             meta.WORKERS,
		MaxMoves:            meta.MAX_MOVES,
		AgentDepth:          meta.AGENT_DEPTH,
	}
}

// LoadConfig reads a YAML file over the defaults. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 2:
		return fmt.Errorf("population size must be at least 2, got %d", c.PopulationSize)
	case c.Retained < 1 || c.ChildrenPerRetained < 0:
		return fmt.Errorf("invalid selection: retain %d with %d children each", c.Retained, c.ChildrenPerRetained)
	case c.Retained*(1+c.ChildrenPerRetained) > c.PopulationSize:
		return fmt.Errorf("retaining %d agents with %d children each needs more than %d slots",
			c.Retained, c.ChildrenPerRetained, c.PopulationSize)
	case c.Matches < 0 || c.Matches > tournament.MaxMatches(c.PopulationSize):
		return fmt.Errorf("%w: %d matches among %d agents", tournament.ErrInfeasibleSchedule, c.Matches, c.PopulationSize)
	case c.MaxGenerations < 1:
		return fmt.Errorf("max generations must be positive, got %d", c.MaxGenerations)
	case c.PerturbationMax < 0 || c.PerturbationDecay <= 0:
		return fmt.Errorf("invalid perturbation %g with decay %g", c.PerturbationMax, c.PerturbationDecay)
	case c.RandomWeightMax <= 0:
		return fmt.Errorf("random weight max must be positive, got %g", c.RandomWeightMax)
	case c.AgentTime <= 0 && c.AgentDepth < 1:
		return fmt.Errorf("agents need a positive depth or time, got depth %d", c.AgentDepth)
	}
	return nil
}

// Limit is the search limit given to every agent of the run.
func (c Config) Limit() searcher.Limit {
	if c.AgentTime > 0 {
		return searcher.Time(c.AgentTime)
	}
	return searcher.Depth(c.AgentDepth)
}
