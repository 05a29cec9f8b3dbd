package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"milestone/game"
)

// Terminal scores. A decided position always dominates any weighted sum.
const (
	WinScore  = math.MaxFloat64
	LossScore = -math.MaxFloat64
)

// Scale is the magnitude every heuristic is normalized to.
const Scale = 1000.0

// Weights holds one coefficient per heuristic, in registration order.
type Weights []float64

// Normalized returns a copy scaled to sum to 1. Weights summing to zero (or
// to a non-finite value) fall back to a uniform vector.
func (w Weights) Normalized() Weights {
	out := make(Weights, len(w))
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i, v := range w {
		out[i] = v / sum
	}
	return out
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	return append(Weights(nil), w...)
}

// String formats the weights as a space separated list.
func (w Weights) String() string {
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return strings.Join(parts, " ")
}

// Normalize maps v linearly from [lower, upper] onto [-Scale, Scale]. A
// degenerate range maps everything to 0.
func Normalize(lower, upper, v float64) float64 {
	if upper == lower {
		return 0
	}
	return 2*Scale*(v-lower)/(upper-lower) - Scale
}

// Evaluator composes heuristics into a single score from Black's perspective.
type Evaluator struct {
	heuristics []game.Heuristic
	weights    Weights
}

func New(heuristics []game.Heuristic, weights Weights) (*Evaluator, error) {
	if len(heuristics) != len(weights) {
		return nil, fmt.Errorf("got %d weights for %d heuristics", len(weights), len(heuristics))
	}
	return &Evaluator{
		heuristics: heuristics,
		weights:    weights.Clone(),
	}, nil
}

func (e *Evaluator) Weights() Weights {
	return e.weights.Clone()
}

func (e *Evaluator) Heuristics() []game.Heuristic {
	return e.heuristics
}

// Score returns WinScore or LossScore for a decided game, and the weighted
// sum of normalized heuristics otherwise.
func (e *Evaluator) Score(s game.State) float64 {
	if !s.Active() {
		if winner, ok := s.Winner(); ok {
			if winner == game.Black {
				return WinScore
			}
			return LossScore
		}
	}
	total := 0.0
	for i, h := range e.heuristics {
		lower, upper := h.Bounds()
		total += e.weights[i] * Normalize(lower, upper, h.Score(s))
	}
	return total
}

// Contribution is one heuristic's share of a score, before and after a line
// of play.
type Contribution struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// Delta is the weighted change the line produced for this heuristic.
func (c Contribution) Delta() float64 {
	return c.Weight * (c.After - c.Before)
}

// Explain breaks the score of two positions down per heuristic. Values are
// normalized but not weighted.
func (e *Evaluator) Explain(before, after game.State) []Contribution {
	out := make([]Contribution, len(e.heuristics))
	for i, h := range e.heuristics {
		lower, upper := h.Bounds()
		out[i] = Contribution{
			Name:   h.Name(),
			Weight: e.weights[i],
			Before: Normalize(lower, upper, h.Score(before)),
			After:  Normalize(lower, upper, h.Score(after)),
		}
	}
	return out
}
