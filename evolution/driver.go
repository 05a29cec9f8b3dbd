package evolution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"milestone/agent"
	"milestone/checkpoint"
	"milestone/tournament"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Phase int

const (
	Initializing Phase = iota
	RunningGeneration
	Checkpointing
	Done
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case RunningGeneration:
		return "running"
	case Checkpointing:
		return "checkpointing"
	case Done:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Reporter receives the standings of every completed generation.
type Reporter interface {
	WriteStandings(generation int, population agent.Population, st *tournament.Standings) error
}

// Driver runs generations of tournament play, selection and mutation,
// checkpointing after each one. A Driver is not safe for concurrent use.
type Driver struct {
	cfg        Config
	weights    int
	tournament *tournament.Tournament
	store      checkpoint.Store
	reporter   Reporter
	rng        *rand.Rand
	now        func() time.Time

	phase      Phase
	generation int // last checkpointed generation
	population agent.Population
	standings  *tournament.Standings
	last       *checkpoint.Checkpoint
}

type Option func(d *Driver)

func WithReporter(reporter Reporter) Option {
	return func(d *Driver) {
		d.reporter = reporter
	}
}

func withClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// NewDriver creates a driver for agents carrying the given number of
// weights.
func NewDriver(cfg Config, weights int, runner tournament.Runner, store checkpoint.Store, options ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if weights < 1 {
		return nil, fmt.Errorf("agents need at least one weight, got %d", weights)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	d := &Driver{
		cfg:        cfg,
		weights:    weights,
		tournament: tournament.New(runner, cfg.Workers, cfg.KFactor),
		store:      store,
		rng:        rand.New(rand.NewSource(seed)),
		now:        time.Now,
		phase:      Initializing,
	}
	for _, option := range options {
		option(d)
	}
	return d, nil
}

func (d *Driver) Phase() Phase {
	return d.phase
}

// Generation is the number of the last checkpointed generation.
func (d *Driver) Generation() int {
	return d.generation
}

// Population is the population of the generation about to run.
func (d *Driver) Population() agent.Population {
	return d.population.Clone()
}

// Run steps the driver until it is done and returns the last checkpoint.
func (d *Driver) Run(ctx context.Context) (*checkpoint.Checkpoint, error) {
	for d.phase != Done {
		if err := d.Step(ctx); err != nil {
			return nil, err
		}
	}
	return d.last, nil
}

// Step performs the work of the current phase and moves to the next one.
func (d *Driver) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch d.phase {
	case Initializing:
		return d.initialize(ctx)
	case RunningGeneration:
		return d.runGeneration(ctx)
	case Checkpointing:
		return d.checkpoint(ctx)
	}
	return nil
}

func (d *Driver) initialize(ctx context.Context) error {
	c, err := d.store.Latest(ctx)
	switch {
	case err == nil:
		for slot, a := range c.Agents {
			if len(a.Weights) != d.weights {
				return fmt.Errorf("checkpoint %d slot %d has %d weights, want %d", c.Generation, slot, len(a.Weights), d.weights)
			}
		}
		log.Info().
			Int("generation", c.Generation).
			Int("agents", len(c.Agents)).
			Msg("resuming from checkpoint")
		d.generation = c.Generation
		d.last = c
		if d.finished() {
			d.phase = Done
			return nil
		}
		d.population = d.nextPopulation(c.Agents, c.Ratings)
	case errors.Is(err, checkpoint.ErrNotFound):
		log.Info().Msg("no checkpoint found, starting from random agents")
		d.population = d.randomPopulation()
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		log.Error().Err(err).Msg("failed to load checkpoint, starting over from random agents")
		d.population = d.randomPopulation()
	}
	d.phase = RunningGeneration
	return nil
}

func (d *Driver) runGeneration(ctx context.Context) error {
	generation := d.generation + 1
	schedule, err := tournament.Schedule(d.rng, len(d.population), d.cfg.Matches)
	if err != nil {
		return fmt.Errorf("generation %d: %w", generation, err)
	}

	log.Info().
		Int("generation", generation).
		Int("agents", len(d.population)).
		Int("matches", len(schedule)).
		Msg("starting generation")

	ratings := tournament.NewRatingTable(len(d.population), d.cfg.InitialRating)
	st, err := d.tournament.Play(ctx, d.population, ratings, schedule)
	if err != nil {
		return fmt.Errorf("generation %d: %w", generation, err)
	}
	d.standings = st

	if d.reporter != nil {
		if err := d.reporter.WriteStandings(generation, d.population, st); err != nil {
			return fmt.Errorf("failed to report generation %d: %w", generation, err)
		}
	}
	d.phase = Checkpointing
	return nil
}

func (d *Driver) checkpoint(ctx context.Context) error {
	generation := d.generation + 1
	c := &checkpoint.Checkpoint{
		Generation: generation,
		Agents:     d.population.Clone(),
		Ratings:    d.standings.Ratings.Clone(),
		Records:    append([]tournament.Record(nil), d.standings.Records...),
		Timestamp:  d.now().UTC(),
	}
	if err := d.store.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to checkpoint generation %d: %w", generation, err)
	}
	d.generation = generation
	d.last = c

	best := Ranking(c.Ratings)[0]
	log.Info().
		Int("generation", generation).
		Int("best_slot", best).
		Int("best_rating", c.Ratings[best]).
		Stringer("best_weights", c.Agents[best].Weights).
		Msg("generation complete")

	if d.finished() {
		d.phase = Done
		return nil
	}
	d.population = d.nextPopulation(c.Agents, c.Ratings)
	d.phase = RunningGeneration
	return nil
}

func (d *Driver) finished() bool {
	return d.generation >= d.cfg.MaxGenerations
}

// nextPopulation keeps the best rated agents, adds their mutated children
// and fills the remaining slots with random agents.
func (d *Driver) nextPopulation(population agent.Population, ratings tournament.RatingTable) agent.Population {
	p := agent.Perturbation(d.generation, d.cfg.PerturbationMax, d.cfg.PerturbationDecay)
	next := make(agent.Population, 0, d.cfg.PopulationSize)
	for _, slot := range Select(ratings, d.cfg.Retained) {
		parent := population[slot]
		next = append(next, parent)
		next = append(next, parent.Children(d.rng, d.cfg.ChildrenPerRetained, p)...)
	}
	for len(next) < d.cfg.PopulationSize {
		next = append(next, d.randomAgent())
	}
	return next
}

func (d *Driver) randomPopulation() agent.Population {
	pop := make(agent.Population, d.cfg.PopulationSize)
	for i := range pop {
		pop[i] = d.randomAgent()
	}
	return pop
}

func (d *Driver) randomAgent() agent.Agent {
	return agent.Random(d.rng, d.weights, d.cfg.RandomWeightMax, d.cfg.Limit())
}

// Ranking orders slots by rating, highest first. Equal ratings keep slot
// order.
func Ranking(ratings tournament.RatingTable) []int {
	slots := make([]int, len(ratings))
	for i := range slots {
		slots[i] = i
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return ratings[slots[i]] > ratings[slots[j]]
	})
	return slots
}

// Select returns the k best rated slots.
func Select(ratings tournament.RatingTable, k int) []int {
	ranking := Ranking(ratings)
	if k > len(ranking) {
		k = len(ranking)
	}
	return ranking[:k]
}
