package tournament

import (
	"context"
	"fmt"

	"milestone/agent"
	"milestone/engine"
	"milestone/game"
	"milestone/searcher"
)

// Match is a scheduled pairing together with the agents occupying both
// slots.
type Match struct {
	ID int
	Pair
	AgentA agent.Agent
	AgentB agent.Agent
}

// MatchResult counts the games each slot won. Undecided games count for
// neither.
type MatchResult struct {
	Match Match
	WinsA int
	WinsB int
}

// Runner plays one match. Implementations must be safe for concurrent use;
// the tournament calls PlayMatch from several goroutines.
type Runner interface {
	PlayMatch(ctx context.Context, m Match) (MatchResult, error)
}

// GameRecorder receives every completed game for auditing. Game 0 has A
// playing Black, game 1 has B playing Black.
type GameRecorder interface {
	RecordGame(m Match, index int, g *engine.Game) error
}

// GameRunner plays matches as two real games with colors swapped.
type GameRunner struct {
	heuristics []game.Heuristic
	start      func() game.State
	recorder   GameRecorder
	maxMoves   int
	options    []searcher.Option
}

type RunnerOption func(r *GameRunner)

func WithRecorder(recorder GameRecorder) RunnerOption {
	return func(r *GameRunner) {
		r.recorder = recorder
	}
}

func WithMaxMoves(n int) RunnerOption {
	return func(r *GameRunner) {
		if n > 0 {
			r.maxMoves = n
		}
	}
}

func WithSearchOptions(options ...searcher.Option) RunnerOption {
	return func(r *GameRunner) {
		r.options = append(r.options, options...)
	}
}

func NewGameRunner(heuristics []game.Heuristic, start func() game.State, options ...RunnerOption) *GameRunner {
	r := &GameRunner{
		heuristics: heuristics,
		start:      start,
		maxMoves:   engine.MaxMoves,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *GameRunner) PlayMatch(ctx context.Context, m Match) (MatchResult, error) {
	res := MatchResult{Match: m}
	seats := [GamesPerMatch][2]agent.Agent{
		{m.AgentA, m.AgentB},
		{m.AgentB, m.AgentA},
	}
	for i, seat := range seats {
		black, err := seat[game.Black].Searcher(r.heuristics, r.options...)
		if err != nil {
			return res, err
		}
		white, err := seat[game.White].Searcher(r.heuristics, r.options...)
		if err != nil {
			return res, err
		}
		g, err := engine.NewLocal(r.start(), black, white, engine.WithMaxMoves(r.maxMoves)).Run(ctx)
		if err != nil {
			return res, fmt.Errorf("match %d game %d: %w", m.ID, i, err)
		}
		if r.recorder != nil {
			if err := r.recorder.RecordGame(m, i, g); err != nil {
				return res, fmt.Errorf("failed to record match %d game %d: %w", m.ID, i, err)
			}
		}
		if !g.Decided {
			continue
		}
		// Slot A plays Black in game 0 and White in game 1.
		if (g.Winner == game.Black) == (i == 0) {
			res.WinsA++
		} else {
			res.WinsB++
		}
	}
	return res, nil
}
