package tournament

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"milestone/agent"
	"milestone/engine"
	"milestone/evaluator"
	"milestone/game"
	"milestone/game/milestone"
	"milestone/searcher"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// lowerSlotWins makes the agent in the lower slot win both games.
type lowerSlotWins struct{}

func (lowerSlotWins) PlayMatch(_ context.Context, m Match) (MatchResult, error) {
	if m.A < m.B {
		return MatchResult{Match: m, WinsA: 2}, nil
	}
	return MatchResult{Match: m, WinsB: 2}, nil
}

type failingRunner struct{}

func (failingRunner) PlayMatch(context.Context, Match) (MatchResult, error) {
	return MatchResult{}, errors.New("engine crashed")
}

type memoryRecorder struct {
	mu    sync.Mutex
	games map[int][]*engine.Game
}

func (r *memoryRecorder) RecordGame(m Match, index int, g *engine.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.games == nil {
		r.games = make(map[int][]*engine.Game)
	}
	r.games[m.ID] = append(r.games[m.ID], g)
	return nil
}

func population(n int) agent.Population {
	rng := rand.New(rand.NewSource(5))
	pop := make(agent.Population, n)
	for i := range pop {
		pop[i] = agent.Random(rng, len(milestone.Heuristics()), 1.5, searcher.Depth(1))
	}
	return pop
}

func TestSchedule(t *testing.T) {
	t.Run("exact count of distinct pairs without self play", func(t *testing.T) {
		for seed := uint64(0); seed < 5; seed++ {
			rng := rand.New(rand.NewSource(seed))
			for n := 2; n <= 8; n++ {
				for m := 0; m <= MaxMatches(n); m++ {
					pairs, err := Schedule(rng, n, m)
					require.NoError(t, err)
					require.Len(t, pairs, m)

					seen := make(map[Pair]bool)
					for _, p := range pairs {
						require.NotEqual(t, p.A, p.B, "Slot %d should not play itself", p.A)
						require.GreaterOrEqual(t, p.A, 0)
						require.Less(t, p.B, n)
						require.False(t, seen[p.key()], "Pair %+v scheduled twice", p)
						seen[p.key()] = true
					}
				}
			}
		}
	})

	t.Run("more matches than pairs fails", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for n := 0; n <= 6; n++ {
			_, err := Schedule(rng, n, MaxMatches(n)+1)
			require.ErrorIs(t, err, ErrInfeasibleSchedule)
		}
	})

	t.Run("full schedule covers every pair", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))

		pairs, err := Schedule(rng, 4, 6)

		require.NoError(t, err)
		met := make([]int, 4)
		for _, p := range pairs {
			met[p.A]++
			met[p.B]++
		}
		require.Equal(t, []int{3, 3, 3, 3}, met)
	})

	t.Run("same seed same schedule", func(t *testing.T) {
		a, err := Schedule(rand.New(rand.NewSource(11)), 12, 36)
		require.NoError(t, err)
		b, err := Schedule(rand.New(rand.NewSource(11)), 12, 36)
		require.NoError(t, err)

		require.Equal(t, a, b)
	})
}

func TestUpdateRatings(t *testing.T) {
	t.Run("even match", func(t *testing.T) {
		r := RatingTable{1000, 1000}

		delta := UpdateRatings(r, 0, 1, 2, 32)

		require.Equal(t, 32, delta)
		require.Equal(t, RatingTable{1032, 968}, r)
	})

	t.Run("split match between equals changes nothing", func(t *testing.T) {
		r := RatingTable{1000, 1000}

		require.Zero(t, UpdateRatings(r, 0, 1, 1, 32))
		require.Equal(t, RatingTable{1000, 1000}, r)
	})

	t.Run("delta is truncated", func(t *testing.T) {
		r := RatingTable{1064, 936}

		delta := UpdateRatings(r, 0, 1, 2, 32)

		require.Equal(t, 20, delta)
	})

	t.Run("changes are symmetric", func(t *testing.T) {
		rng := rand.New(rand.NewSource(8))
		for i := 0; i < 1000; i++ {
			r := RatingTable{500 + rng.Intn(1000), 500 + rng.Intn(1000)}
			before := r.Clone()

			delta := UpdateRatings(r, 0, 1, rng.Intn(3), 10+rng.Float64()*40)

			require.Equal(t, delta, r[0]-before[0])
			require.Equal(t, -delta, r[1]-before[1])
		}
	})

	t.Run("non-finite values leave ratings alone", func(t *testing.T) {
		r := RatingTable{1000, 1000}

		delta := UpdateRatings(r, 0, 1, 2, math.Inf(1))

		require.Zero(t, delta)
		require.Equal(t, RatingTable{1000, 1000}, r)
	})
}

func TestExpectedScore(t *testing.T) {
	require.Equal(t, 1.0, ExpectedScore(1000, 1000))
	require.InDelta(t, 2.0, ExpectedScore(1000, 1000)+ExpectedScore(1000, 1000), 1e-12)
	require.InDelta(t, 2.0, ExpectedScore(1200, 1000)+ExpectedScore(1000, 1200), 1e-12)
	require.Greater(t, ExpectedScore(1200, 1000), 1.0)
}

func TestTournamentPlay(t *testing.T) {
	t.Run("match winner ranks first", func(t *testing.T) {
		pop := population(4)
		schedule := []Pair{{0, 1}, {2, 3}, {0, 2}, {1, 3}, {0, 3}, {1, 2}}

		st, err := New(lowerSlotWins{}, 1, 32).Play(context.Background(), pop, NewRatingTable(4, 1000), schedule)

		require.NoError(t, err)
		require.Equal(t, RatingTable{1084, 1032, 968, 916}, st.Ratings)
		require.Equal(t, []Record{{6, 6}, {4, 6}, {2, 6}, {0, 6}}, st.Records)
		require.Len(t, st.Results, 6)
	})

	t.Run("parallel play keeps records and total rating", func(t *testing.T) {
		pop := population(4)
		schedule, err := Schedule(rand.New(rand.NewSource(4)), 4, 6)
		require.NoError(t, err)
		initial := NewRatingTable(4, 1000)

		st, err := New(lowerSlotWins{}, 4, 32).Play(context.Background(), pop, initial, schedule)

		require.NoError(t, err)
		require.Equal(t, []Record{{6, 6}, {4, 6}, {2, 6}, {0, 6}}, st.Records)
		total := 0
		for _, r := range st.Ratings {
			total += r
		}
		require.Equal(t, 4000, total, "Rating changes should be zero-sum")
		require.Equal(t, RatingTable{1000, 1000, 1000, 1000}, initial, "Input ratings should not change")
		require.Greater(t, st.Ratings[0], 1000)
		require.Less(t, st.Ratings[3], 1000)
	})

	t.Run("runner errors abort the tournament", func(t *testing.T) {
		pop := population(3)

		_, err := New(failingRunner{}, 2, 32).Play(context.Background(), pop, NewRatingTable(3, 1000), []Pair{{0, 1}, {1, 2}})

		require.ErrorContains(t, err, "engine crashed")
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		pop := population(2)
		tr := New(lowerSlotWins{}, 1, 32)

		_, err := tr.Play(context.Background(), pop, NewRatingTable(3, 1000), nil)
		require.Error(t, err)
		_, err = tr.Play(context.Background(), pop, NewRatingTable(2, 1000), []Pair{{0, 2}})
		require.Error(t, err)
	})
}

func TestGameRunner(t *testing.T) {
	pop := population(2)
	recorder := &memoryRecorder{}
	start := func() game.State { return milestone.New() }
	runner := NewGameRunner(milestone.Heuristics(), start, WithRecorder(recorder))

	res, err := runner.PlayMatch(context.Background(), Match{ID: 7, Pair: Pair{0, 1}, AgentA: pop[0], AgentB: pop[1]})

	require.NoError(t, err)
	require.LessOrEqual(t, res.WinsA+res.WinsB, GamesPerMatch)
	require.Len(t, recorder.games[7], GamesPerMatch)
	decided := 0
	for _, g := range recorder.games[7] {
		if g.Decided {
			decided++
		}
	}
	require.Equal(t, decided, res.WinsA+res.WinsB, "Every decided game should count for one slot")
}

func TestGameRunnerColors(t *testing.T) {
	// A depth-2 searcher facing a player that can only see one ply should
	// still produce one game per color.
	strong := agent.Handcrafted(evaluator.Weights{1, 1, 1, 1, 1}, searcher.Depth(2))
	weak := agent.Handcrafted(evaluator.Weights{1, 1, 1, 1, 1}, searcher.Depth(1))
	recorder := &memoryRecorder{}
	runner := NewGameRunner(milestone.Heuristics(), func() game.State { return milestone.New() }, WithRecorder(recorder))

	_, err := runner.PlayMatch(context.Background(), Match{ID: 1, Pair: Pair{0, 1}, AgentA: strong, AgentB: weak})

	require.NoError(t, err)
	games := recorder.games[1]
	require.Len(t, games, 2)
	require.Equal(t, 2, games[0].Turns[0].Result.Depth, "Slot A should play Black first")
	require.Equal(t, 1, games[1].Turns[0].Result.Depth, "Slot B should play Black second")
}
