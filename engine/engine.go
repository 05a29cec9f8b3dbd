package engine

import (
	"time"

	"milestone/game"
	"milestone/searcher"
)

// MaxMoves caps a game. A game stopped by the cap has no winner.
const MaxMoves = 500

// Player chooses moves for one side.
type Player interface {
	FindMove(state game.State) (*searcher.Result, error)
}

// Turn records one move and the search that produced it.
type Turn struct {
	Ply    int
	Side   int
	Move   game.Move
	Result *searcher.Result
	State  game.State // position after the move
}

// Game is the full history of one played game.
type Game struct {
	Start     game.State
	Final     game.State
	Turns     []Turn
	Winner    int
	Decided   bool
	StartTime time.Time
	EndTime   time.Time
}

func (g *Game) Duration() time.Duration {
	return g.EndTime.Sub(g.StartTime)
}
