package experiments

import (
	"context"
	"fmt"

	"milestone/agent"
	"milestone/tournament"

	"github.com/rs/zerolog/log"
)

// Summary tallies a head-to-head series between two agents.
type Summary struct {
	Matches   int
	Games     int
	WinsA     int
	WinsB     int
	Undecided int
}

// ScoreA is the share of games won by A, counting undecided games as half.
func (s Summary) ScoreA() float64 {
	if s.Games == 0 {
		return 0
	}
	return (float64(s.WinsA) + float64(s.Undecided)/2) / float64(s.Games)
}

// HeadToHead plays a series of two-game matches between a and b. Each match
// gives both agents one game with each color.
func HeadToHead(ctx context.Context, runner tournament.Runner, a, b agent.Agent, matches int) (Summary, error) {
	if matches < 1 {
		return Summary{}, fmt.Errorf("need at least one match, got %d", matches)
	}

	var s Summary
	log.Info().Int("matches", matches).Msg("starting head to head")

	for i := 0; i < matches; i++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		m := tournament.Match{ID: i, Pair: tournament.Pair{A: 0, B: 1}, AgentA: a, AgentB: b}
		res, err := runner.PlayMatch(ctx, m)
		if err != nil {
			return s, fmt.Errorf("failed to play match %d: %w", i, err)
		}
		s.Matches++
		s.Games += tournament.GamesPerMatch
		s.WinsA += res.WinsA
		s.WinsB += res.WinsB
		s.Undecided += tournament.GamesPerMatch - res.WinsA - res.WinsB

		log.Info().
			Int("match", i+1).
			Int("wins_a", s.WinsA).
			Int("wins_b", s.WinsB).
			Int("undecided", s.Undecided).
			Msg("completed match")
	}

	log.Info().Float64("score_a", s.ScoreA()).Msg("completed head to head")
	return s, nil
}
