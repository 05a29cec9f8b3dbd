package milestone

import (
	"fmt"
	"strconv"
	"strings"

	"milestone/game"
)

// Cells is the number of hexes on the board.
const Cells = 37

// Goal hexes: Black wins by reaching BlackGoal, White by reaching WhiteGoal.
const (
	BlackGoal = 36
	WhiteGoal = 0
)

// PiecesPerSide is the number of pieces each side starts with.
const PiecesPerSide = 10

// Piece occupies a hex.
type Piece uint8

const (
	Empty Piece = iota
	BlackPiece
	WhitePiece
)

func pieceOf(side int) Piece {
	if side == game.Black {
		return BlackPiece
	}
	return WhitePiece
}

func (p Piece) rune() byte {
	switch p {
	case BlackPiece:
		return 'b'
	case WhitePiece:
		return 'w'
	default:
		return '.'
	}
}

// Kind distinguishes the two ways a piece can move.
type Kind uint8

const (
	// Straight moves advance along a file and only land on empty hexes.
	Straight Kind = iota
	// Diagonal moves land on empty hexes or capture an opposing piece.
	Diagonal
)

// Move takes a piece from one hex to another.
type Move struct {
	Kind Kind
	From int
	To   int
}

func (m Move) String() string {
	return fmt.Sprintf("%d-%d", m.From, m.To)
}

// ParseMove reads a move in the "from-to" notation. The kind is looked up in
// the move table of side.
func ParseMove(side int, s string) (Move, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Move{}, fmt.Errorf("improperly formatted move %q", s)
	}
	f, err := strconv.Atoi(from)
	if err != nil {
		return Move{}, fmt.Errorf("failed to parse origin of %q: %w", s, err)
	}
	t, err := strconv.Atoi(to)
	if err != nil {
		return Move{}, fmt.Errorf("failed to parse destination of %q: %w", s, err)
	}
	if !game.ValidSide(side) || f < 0 || f >= Cells {
		return Move{}, fmt.Errorf("%w: %s", game.ErrIllegalMove, s)
	}
	for _, m := range moveTable[side][f] {
		if m.To == t {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s", game.ErrIllegalMove, s)
}

// Row lengths from Black's home point to White's.
var rowLengths = [...]int{1, 2, 3, 4, 3, 4, 3, 4, 3, 4, 3, 2, 1}

// Rows is the number of rows on the board.
const Rows = len(rowLengths)

var rows [Cells]int

// Row returns the row of hex i, 0 being Black's home point.
func Row(i int) int {
	return rows[i]
}

var blackMoves = [Cells][]Move{
	{{Diagonal, 0, 1}, {Diagonal, 0, 2}, {Straight, 0, 4}},
	{{Diagonal, 1, 4}, {Diagonal, 1, 3}, {Straight, 1, 7}},
	{{Diagonal, 2, 4}, {Diagonal, 2, 5}, {Straight, 2, 8}},
	{{Diagonal, 3, 6}, {Diagonal, 3, 7}, {Straight, 3, 10}},
	{{Diagonal, 4, 7}, {Diagonal, 4, 8}, {Straight, 4, 11}},
	{{Diagonal, 5, 8}, {Diagonal, 5, 9}, {Straight, 5, 12}},
	{{Diagonal, 6, 10}, {Straight, 6, 13}},
	{{Diagonal, 7, 10}, {Diagonal, 7, 11}, {Straight, 7, 14}},
	{{Diagonal, 8, 11}, {Diagonal, 8, 12}, {Straight, 8, 15}},
	{{Diagonal, 9, 12}, {Straight, 9, 16}},
	{{Diagonal, 10, 13}, {Diagonal, 10, 14}, {Straight, 10, 17}},
	{{Diagonal, 11, 14}, {Diagonal, 11, 15}, {Straight, 11, 18}},
	{{Diagonal, 12, 15}, {Diagonal, 12, 16}, {Straight, 12, 19}},
	{{Diagonal, 13, 17}, {Straight, 13, 20}},
	{{Diagonal, 14, 17}, {Diagonal, 14, 18}, {Straight, 14, 21}},
	{{Diagonal, 15, 18}, {Diagonal, 15, 19}, {Straight, 15, 22}},
	{{Diagonal, 16, 19}, {Straight, 16, 23}},
	{{Diagonal, 17, 20}, {Diagonal, 17, 21}, {Straight, 17, 24}},
	{{Diagonal, 18, 21}, {Diagonal, 18, 22}, {Straight, 18, 25}},
	{{Diagonal, 19, 22}, {Diagonal, 19, 23}, {Straight, 19, 26}},
	{{Diagonal, 20, 24}, {Straight, 20, 27}},
	{{Diagonal, 21, 24}, {Diagonal, 21, 25}, {Straight, 21, 28}},
	{{Diagonal, 22, 25}, {Diagonal, 22, 26}, {Straight, 22, 29}},
	{{Diagonal, 23, 26}, {Straight, 23, 30}},
	{{Diagonal, 24, 27}, {Diagonal, 24, 28}, {Straight, 24, 31}},
	{{Diagonal, 25, 28}, {Diagonal, 25, 29}, {Straight, 25, 32}},
	{{Diagonal, 26, 29}, {Diagonal, 26, 30}, {Straight, 26, 33}},
	{{Diagonal, 27, 31}},
	{{Diagonal, 28, 31}, {Diagonal, 28, 32}, {Straight, 28, 34}},
	{{Diagonal, 29, 32}, {Diagonal, 29, 33}, {Straight, 29, 35}},
	{{Diagonal, 30, 33}},
	{{Diagonal, 31, 34}},
	{{Diagonal, 32, 34}, {Diagonal, 32, 35}, {Straight, 32, 36}},
	{{Diagonal, 33, 35}},
	{{Diagonal, 34, 36}},
	{{Diagonal, 35, 36}},
	{},
}

// moveTable is indexed by side, then origin hex. White's table mirrors
// Black's with every edge reversed; straight moves are listed last.
var moveTable [2][Cells][]Move

func init() {
	i := 0
	for r, n := range rowLengths {
		for j := 0; j < n; j++ {
			rows[i] = r
			i++
		}
	}
	if i != Cells {
		panic("row lengths do not cover the board")
	}

	moveTable[game.Black] = blackMoves
	var white [Cells][]Move
	for _, kind := range []Kind{Diagonal, Straight} {
		for _, moves := range blackMoves {
			for _, m := range moves {
				if m.Kind == kind {
					white[m.To] = append(white[m.To], Move{Kind: kind, From: m.To, To: m.From})
				}
			}
		}
	}
	moveTable[game.White] = white
}

// Moves returns every move a piece of side standing on hex i could make on
// an empty board.
func Moves(side, i int) []Move {
	return moveTable[side][i]
}
