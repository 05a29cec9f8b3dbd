package game

import "errors"

// Sides of a two-player game. Black always moves first.
const (
	Black = 0
	White = 1
)

var (
	// ErrNoLegalMoves is returned when a state that is still active offers no
	// move to the side to play.
	ErrNoLegalMoves = errors.New("no legal moves in an active state")
	// ErrIllegalMove is returned by State.Play for a move the rules forbid.
	ErrIllegalMove = errors.New("illegal move")
	// ErrGameOver is returned by State.Play once the game has a winner.
	ErrGameOver = errors.New("game is over")
)

// Move identifies a transition between two states. It is only ever reported,
// never interpreted outside the game that produced it.
type Move interface {
	String() string
}

// State should be immutable - operations on State always return a new copy
type State interface {
	// Turn returns the side to move.
	Turn() int
	LegalMoves(side int) []Move
	Play(Move) (State, error)
	// Winner reports the winning side once the game is decided.
	Winner() (side int, ok bool)
	Active() bool
}

// Heuristic scores a state from Black's perspective. Score must stay within
// Bounds for every reachable state; the bounds are used for normalization.
type Heuristic interface {
	Name() string
	Score(State) float64
	Bounds() (lower, upper float64)
}

// Opponent returns the other side.
func Opponent(side int) int {
	return 1 - side
}

// ValidSide reports whether side is Black or White.
func ValidSide(side int) bool {
	return side == Black || side == White
}
