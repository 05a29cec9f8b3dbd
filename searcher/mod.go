package searcher

import (
	"errors"

	"milestone/game"
)

// MaxDepth caps iterative deepening so that a search always terminates.
const MaxDepth = 100

var (
	// ErrGameOver is returned when asked for a move in a decided game.
	ErrGameOver = errors.New("search requested on a finished game")
	// ErrNoDepthCompleted is returned when the budget ran out before a
	// single depth was searched.
	ErrNoDepthCompleted = errors.New("no search depth completed within the budget")
	// ErrNoMove is returned when a completed search found no move at the
	// root.
	ErrNoMove = errors.New("search produced no move")
	// ErrInvalidSide is returned for a side other than Black or White.
	ErrInvalidSide = errors.New("invalid side")
)

// Evaluator scores a position from Black's perspective: higher is better
// for Black.
type Evaluator interface {
	Score(game.State) float64
}
