package tournament

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"milestone/agent"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Record is a slot's tally over a tournament.
type Record struct {
	Wins  int `json:"wins"`
	Games int `json:"games"`
}

// Standings is the outcome of a tournament. Results are listed in the order
// their ratings were applied.
type Standings struct {
	Ratings RatingTable
	Records []Record
	Results []MatchResult
}

// Tournament plays scheduled matches on a pool of workers and folds the
// results into the rating table one match at a time, in completion order.
// Under parallel play the final ratings therefore depend on scheduling.
type Tournament struct {
	runner  Runner
	workers int
	k       float64
}

func New(runner Runner, workers int, k float64) *Tournament {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Tournament{
		runner:  runner,
		workers: workers,
		k:       k,
	}
}

// Play runs every pair of the schedule. ratings is copied, not modified.
func (t *Tournament) Play(ctx context.Context, population agent.Population, ratings RatingTable, schedule []Pair) (*Standings, error) {
	if len(ratings) != len(population) {
		return nil, fmt.Errorf("got %d ratings for %d agents", len(ratings), len(population))
	}
	for _, p := range schedule {
		if p.A < 0 || p.B < 0 || p.A >= len(population) || p.B >= len(population) || p.A == p.B {
			return nil, fmt.Errorf("invalid pair %+v for %d agents", p, len(population))
		}
	}

	st := &Standings{
		Ratings: ratings.Clone(),
		Records: make([]Record, len(population)),
		Results: make([]MatchResult, 0, len(schedule)),
	}

	g, ctx := errgroup.WithContext(ctx)

	var matches = make(chan Match)
	var results = make(chan MatchResult)

	g.Go(func() error {
		defer close(matches)
		for id, p := range schedule {
			m := Match{ID: id, Pair: p, AgentA: population[p.A], AgentB: population[p.B]}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case matches <- m:
			}
		}
		return nil
	})

	g.Go(func() error {
		for res := range results {
			st.apply(res, t.k)
		}
		return nil
	})

	var wg = &sync.WaitGroup{}

	for i := 0; i < t.workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return t.playMatches(ctx, matches, results)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

func (t *Tournament) playMatches(ctx context.Context, matches <-chan Match, results chan<- MatchResult) error {
	for m := range matches {
		res, err := t.runner.PlayMatch(ctx, m)
		if err != nil {
			return fmt.Errorf("failed to play match %d (%d vs %d): %w", m.ID, m.A, m.B, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case results <- res:
		}
	}
	return nil
}

func (st *Standings) apply(res MatchResult, k float64) {
	a, b := res.Match.A, res.Match.B
	delta := UpdateRatings(st.Ratings, a, b, res.WinsA, k)
	st.Records[a].Wins += res.WinsA
	st.Records[b].Wins += res.WinsB
	st.Records[a].Games += GamesPerMatch
	st.Records[b].Games += GamesPerMatch
	st.Results = append(st.Results, res)

	log.Info().
		Int("match", res.Match.ID).
		Int("a", a).
		Int("b", b).
		Int("wins_a", res.WinsA).
		Int("wins_b", res.WinsB).
		Int("delta", delta).
		Msg("match complete")
}
