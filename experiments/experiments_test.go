package experiments

import (
	"context"
	"errors"
	"testing"

	"milestone/agent"
	"milestone/evaluator"
	"milestone/game"
	"milestone/game/milestone"
	"milestone/searcher"
	"milestone/tournament"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type splitRunner struct{}

// PlayMatch gives A one win and leaves the other game undecided.
func (splitRunner) PlayMatch(_ context.Context, m tournament.Match) (tournament.MatchResult, error) {
	return tournament.MatchResult{Match: m, WinsA: 1}, nil
}

type failingRunner struct{}

func (failingRunner) PlayMatch(context.Context, tournament.Match) (tournament.MatchResult, error) {
	return tournament.MatchResult{}, errors.New("engine crashed")
}

type mockMove struct{}

func (mockMove) String() string {
	return "step"
}

// corridorState offers a single move until the corridor runs out, then stays
// active with nothing to play.
type corridorState struct {
	left int
}

func (c corridorState) Turn() int {
	return game.Black
}

func (c corridorState) LegalMoves(int) []game.Move {
	if c.left == 0 {
		return nil
	}
	return []game.Move{mockMove{}}
}

func (c corridorState) Play(game.Move) (game.State, error) {
	return corridorState{left: c.left - 1}, nil
}

func (c corridorState) Winner() (int, bool) {
	return 0, false
}

func (c corridorState) Active() bool {
	return true
}

type zeroEvaluator struct{}

func (zeroEvaluator) Score(game.State) float64 {
	return 0
}

func testAgent(depth int) agent.Agent {
	return agent.Handcrafted(evaluator.Weights{1, 1, 1, 1, 1}, searcher.Depth(depth))
}

func TestHeadToHead(t *testing.T) {
	ctx := context.Background()

	t.Run("tallies every game", func(t *testing.T) {
		s, err := HeadToHead(ctx, splitRunner{}, testAgent(1), testAgent(1), 3)

		require.NoError(t, err)
		require.Equal(t, Summary{Matches: 3, Games: 6, WinsA: 3, Undecided: 3}, s)
		require.InDelta(t, 0.75, s.ScoreA(), 1e-12)
	})

	t.Run("real games", func(t *testing.T) {
		runner := tournament.NewGameRunner(milestone.Heuristics(), func() game.State { return milestone.New() })

		s, err := HeadToHead(ctx, runner, testAgent(1), testAgent(2), 1)

		require.NoError(t, err)
		require.Equal(t, 2, s.Games)
		require.Equal(t, 2, s.WinsA+s.WinsB+s.Undecided)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := HeadToHead(ctx, splitRunner{}, testAgent(1), testAgent(1), 0)
		require.Error(t, err)

		_, err = HeadToHead(ctx, failingRunner{}, testAgent(1), testAgent(1), 2)
		require.ErrorContains(t, err, "engine crashed")

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = HeadToHead(cctx, splitRunner{}, testAgent(1), testAgent(1), 2)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty summary", func(t *testing.T) {
		require.Zero(t, Summary{}.ScoreA())
	})
}

func TestPruning(t *testing.T) {
	eval, err := evaluator.New(milestone.Heuristics(), evaluator.Weights{1, 1, 1, 1, 1}.Normalized())
	require.NoError(t, err)

	t.Run("pruning never visits more nodes", func(t *testing.T) {
		samples, err := Pruning(rand.New(rand.NewSource(2)), milestone.New(), eval, 3, 6, 5)

		require.NoError(t, err)
		require.Len(t, samples, 6)
		for _, s := range samples {
			require.LessOrEqual(t, s.PrunedVisits, s.FullVisits)
			require.GreaterOrEqual(t, s.Savings(), 0.0)
			require.Zero(t, s.Ply%5)
			_, err := milestone.Parse(s.Position)
			require.NoError(t, err)
		}
		require.Less(t, samples[0].PrunedVisits, samples[0].FullVisits, "The opening should allow cutoffs")
	})

	t.Run("decided start", func(t *testing.T) {
		won, err := milestone.Parse("....................................b:1")
		require.NoError(t, err)

		_, err = Pruning(rand.New(rand.NewSource(1)), won, eval, 2, 1, 1)

		require.ErrorIs(t, err, searcher.ErrGameOver)
	})

	t.Run("dead end during the playout", func(t *testing.T) {
		samples, err := Pruning(rand.New(rand.NewSource(1)), corridorState{left: 1}, zeroEvaluator{}, 1, 2, 2)

		require.ErrorIs(t, err, game.ErrNoLegalMoves)
		require.ErrorContains(t, err, "ply 1")
		require.Len(t, samples, 1)
	})
}
