package engine

import (
	"context"
	"fmt"
	"time"

	"milestone/game"

	"github.com/rs/zerolog/log"
)

type Option func(e *Local)

func WithMaxMoves(n int) Option {
	return func(e *Local) {
		if n > 0 {
			e.maxMoves = n
		}
	}
}

// Local plays a game between two in-process players.
type Local struct {
	start    game.State
	players  [2]Player
	maxMoves int
}

func NewLocal(start game.State, black, white Player, options ...Option) *Local {
	e := &Local{
		start:    start,
		players:  [2]Player{game.Black: black, game.White: white},
		maxMoves: MaxMoves,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run plays until the game is decided or the move cap is reached. The
// context is checked between moves; a search in progress always finishes.
func (e *Local) Run(ctx context.Context) (*Game, error) {
	g := &Game{
		Start:     e.start,
		StartTime: time.Now(),
	}
	state := e.start

	log.Debug().Msgf("side %d is starting", state.Turn())

	for ply := 1; state.Active() && ply <= e.maxMoves; ply++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		side := state.Turn()
		res, err := e.players[side].FindMove(state)
		if err != nil {
			return nil, fmt.Errorf("side %d failed to find a move at ply %d: %w", side, ply, err)
		}
		next, err := state.Play(res.Move)
		if err != nil {
			return nil, fmt.Errorf("side %d played %s at ply %d: %w", side, res.Move, ply, err)
		}

		log.Debug().
			Int("ply", ply).
			Int("side", side).
			Stringer("move", res.Move).
			Strs("line", res.LineStrings()).
			Float64("score", res.Score).
			Int("depth", res.Depth).
			Int("nodes", res.Nodes).
			Dur("build", res.BuildTime).
			Dur("eval", res.EvalTime).
			Msg("move played")

		g.Turns = append(g.Turns, Turn{
			Ply:    ply,
			Side:   side,
			Move:   res.Move,
			Result: res,
			State:  next,
		})
		state = next
	}

	g.Final = state
	g.EndTime = time.Now()
	g.Winner, g.Decided = state.Winner()
	if !g.Decided {
		log.Info().Msgf("game stopped after %d moves without a winner", len(g.Turns))
	}
	return g, nil
}
