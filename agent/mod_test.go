package agent

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"milestone/evaluator"
	"milestone/game/milestone"
	"milestone/searcher"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	a := Random(rng, 5, 1.5, searcher.Depth(2))

	require.Len(t, a.Weights, 5)
	for _, w := range a.Weights {
		require.GreaterOrEqual(t, w, 0.0)
		require.Less(t, w, 1.5)
	}
	require.Equal(t, searcher.Depth(2), a.Limit)
}

func TestHandcrafted(t *testing.T) {
	a := Handcrafted(evaluator.Weights{2, 2, 4}, searcher.Depth(1))

	require.InDeltaSlice(t, []float64{0.25, 0.25, 0.5}, []float64(a.Weights), 1e-12)
}

func TestMutate(t *testing.T) {
	t.Run("children stay within the perturbation bounds", func(t *testing.T) {
		rng := rand.New(rand.NewSource(9))
		parent := Random(rng, 5, 1.5, searcher.Depth(2))
		for _, p := range []float64{0, 0.05, 0.1, 0.5} {
			for _, child := range parent.Children(rng, 50, p) {
				for i, w := range child.Weights {
					lower, upper := parent.Weights[i]*(1-p), parent.Weights[i]*(1+p)
					require.GreaterOrEqual(t, w, lower-1e-12, "Weight %d below bound for p=%v", i, p)
					require.LessOrEqual(t, w, upper+1e-12, "Weight %d above bound for p=%v", i, p)
				}
			}
		}
	})

	t.Run("parent is not modified", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		parent := Agent{Weights: evaluator.Weights{1, 1}, Limit: searcher.Depth(1)}

		_ = parent.Mutate(rng, 0.5)

		require.Equal(t, evaluator.Weights{1, 1}, parent.Weights)
	})

	t.Run("non-finite results keep the parent weight", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		parent := Agent{Weights: evaluator.Weights{math.MaxFloat64, 1}}

		child := parent.Mutate(rng, 1e300)

		for _, w := range child.Weights {
			require.False(t, math.IsInf(w, 0) || math.IsNaN(w))
		}
	})
}

func TestPerturbation(t *testing.T) {
	require.Equal(t, 0.1, Perturbation(1, 0.1, 0.5))
	require.InDelta(t, 0.025, Perturbation(3, 0.1, 0.5), 1e-15)
	require.Equal(t, 0.1, Perturbation(0, 0.1, 0.5), "Generations start at 1")
	require.Equal(t, 0.1, Perturbation(40, 0.1, 1), "No decay keeps the magnitude")
}

func TestSearcher(t *testing.T) {
	a := Handcrafted(evaluator.Weights{1, 1, 1, 1, 1}, searcher.Depth(1))

	s, err := a.Searcher(milestone.Heuristics())
	require.NoError(t, err)
	res, err := s.FindMove(milestone.New())
	require.NoError(t, err)
	require.NotNil(t, res.Move)

	_, err = Agent{Weights: evaluator.Weights{1}}.Searcher(milestone.Heuristics())
	require.Error(t, err, "Weight count must match the heuristics")
}

func TestAgentJSON(t *testing.T) {
	pop := Population{
		{Weights: evaluator.Weights{0.5, 1.25}, Limit: searcher.Depth(2)},
		{Weights: evaluator.Weights{1, 0}, Limit: searcher.Time(700 * time.Millisecond)},
	}

	data, err := json.Marshal(pop)
	require.NoError(t, err)
	var got Population
	require.NoError(t, json.Unmarshal(data, &got))

	require.Equal(t, pop, got)
}

func TestPopulationClone(t *testing.T) {
	pop := Population{{Weights: evaluator.Weights{1, 2}}}

	clone := pop.Clone()
	clone[0].Weights[0] = 9

	require.Equal(t, 1.0, pop[0].Weights[0])
}
