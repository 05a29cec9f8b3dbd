package milestone

import "milestone/game"

// Every heuristic scores from Black's perspective: positive favors Black.

// middleLine holds the hexes on the straight line joining both goals.
var middleLine = []int{0, 4, 11, 18, 25, 32, 36}

// guards are the hexes from which an opposing piece could step onto the goal
// a side defends, plus the goal itself.
var guards = [2][]int{
	game.Black: {0, 1, 2, 4},
	game.White: {36, 35, 34, 32},
}

// maxAdvancement is the largest advancement total a side can reach: ten
// pieces packed onto the four rows nearest the opposing goal.
const maxAdvancement = 12*1 + 11*2 + 10*3 + 9*4

type heuristic struct {
	name         string
	lower, upper float64
	score        func(State) float64
}

func (h heuristic) Name() string {
	return h.name
}

func (h heuristic) Bounds() (float64, float64) {
	return h.lower, h.upper
}

func (h heuristic) Score(s game.State) float64 {
	st, ok := s.(State)
	if !ok {
		panic("unexpected state type")
	}
	return h.score(st)
}

var (
	// PieceDifferential is the difference in pieces on the board.
	PieceDifferential game.Heuristic = heuristic{
		name:  "piece_differential",
		lower: -PiecesPerSide,
		upper: PiecesPerSide,
		score: func(s State) float64 {
			return float64(s.Count(game.Black) - s.Count(game.White))
		},
	}

	// MiddleLine counts pieces holding the central line.
	MiddleLine game.Heuristic = heuristic{
		name:  "middle_line",
		lower: -float64(len(middleLine)),
		upper: float64(len(middleLine)),
		score: func(s State) float64 {
			n := 0
			for _, i := range middleLine {
				switch s.board[i] {
				case BlackPiece:
					n++
				case WhitePiece:
					n--
				}
			}
			return float64(n)
		},
	}

	// ImportantPieces counts pieces still guarding their own goal.
	ImportantPieces game.Heuristic = heuristic{
		name:  "important_pieces",
		lower: -float64(len(guards[game.White])),
		upper: float64(len(guards[game.Black])),
		score: func(s State) float64 {
			n := 0
			for _, i := range guards[game.Black] {
				if s.board[i] == BlackPiece {
					n++
				}
			}
			for _, i := range guards[game.White] {
				if s.board[i] == WhitePiece {
					n--
				}
			}
			return float64(n)
		},
	}

	// Advancement sums how far each piece has travelled toward the opposing
	// goal, measured in rows.
	Advancement game.Heuristic = heuristic{
		name:  "advancement",
		lower: -maxAdvancement,
		upper: maxAdvancement,
		score: func(s State) float64 {
			n := 0
			for i, p := range s.board {
				switch p {
				case BlackPiece:
					n += Row(i)
				case WhitePiece:
					n -= Rows - 1 - Row(i)
				}
			}
			return float64(n)
		},
	}

	// Mobility is the difference in available moves.
	Mobility game.Heuristic = heuristic{
		name:  "mobility",
		lower: -3 * PiecesPerSide,
		upper: 3 * PiecesPerSide,
		score: func(s State) float64 {
			return float64(s.countMoves(game.Black) - s.countMoves(game.White))
		},
	}
)

// Heuristics returns the full heuristic set in registration order. Saved
// weights are positional, so appending is the only safe change.
func Heuristics() []game.Heuristic {
	return []game.Heuristic{
		PieceDifferential,
		MiddleLine,
		ImportantPieces,
		Advancement,
		Mobility,
	}
}
