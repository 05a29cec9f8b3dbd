package agent

import (
	"fmt"
	"math"

	"milestone/evaluator"
	"milestone/game"
	"milestone/searcher"

	"golang.org/x/exp/rand"
)

// Agent is one evolutionary individual: a weight vector and the budget its
// searches run under. Agents are values; mutation returns a new Agent.
type Agent struct {
	Weights evaluator.Weights `json:"weights"`
	Limit   searcher.Limit    `json:"limit"`
}

// Population is indexed by slot. Slots are stable for a whole generation.
type Population []Agent

// Random draws n weights uniformly from [0, max).
func Random(rng *rand.Rand, n int, max float64, limit searcher.Limit) Agent {
	w := make(evaluator.Weights, n)
	for i := range w {
		w[i] = rng.Float64() * max
	}
	return Agent{Weights: w, Limit: limit}
}

// Handcrafted builds an agent from weights chosen by hand. Its weights are
// normalized to sum to 1.
func Handcrafted(weights evaluator.Weights, limit searcher.Limit) Agent {
	return Agent{Weights: weights.Normalized(), Limit: limit}
}

// Mutate multiplies every weight by a factor drawn from [1-p, 1+p]. A weight
// that would turn non-finite keeps its parent value.
func (a Agent) Mutate(rng *rand.Rand, p float64) Agent {
	w := a.Weights.Clone()
	for i, v := range w {
		factor := 1 + (rng.Float64()*2-1)*p
		next := v * factor
		if math.IsNaN(next) || math.IsInf(next, 0) {
			continue
		}
		w[i] = next
	}
	return Agent{Weights: w, Limit: a.Limit}
}

// Children returns m mutated copies of a. Children are not re-normalized.
func (a Agent) Children(rng *rand.Rand, m int, p float64) []Agent {
	children := make([]Agent, m)
	for i := range children {
		children[i] = a.Mutate(rng, p)
	}
	return children
}

// Perturbation is the mutation magnitude for an absolute generation number
// (starting at 1): pmax * decay^(generation-1).
func Perturbation(generation int, pmax, decay float64) float64 {
	if generation < 1 {
		generation = 1
	}
	return pmax * math.Pow(decay, float64(generation-1))
}

// Searcher builds a searcher scoring positions with the agent's weights.
func (a Agent) Searcher(heuristics []game.Heuristic, options ...searcher.Option) (*searcher.Searcher, error) {
	eval, err := evaluator.New(heuristics, a.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}
	return searcher.NewSearcher(eval, a.Limit, options...), nil
}

// Clone returns a deep copy of the population.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i, a := range p {
		out[i] = Agent{Weights: a.Weights.Clone(), Limit: a.Limit}
	}
	return out
}
