package milestone

import (
	"fmt"
	"strconv"
	"strings"

	"milestone/game"
)

// State is a Milestone position. The zero value is not a valid position;
// use New or Parse.
type State struct {
	board  [Cells]Piece
	turn   int
	winner int
	over   bool
}

var _ game.State = State{}

// New returns the starting position: Black on hexes 0..9, White on 27..36,
// Black to move.
func New() State {
	var s State
	for i := range s.board {
		switch {
		case i < PiecesPerSide:
			s.board[i] = BlackPiece
		case i >= Cells-PiecesPerSide:
			s.board[i] = WhitePiece
		}
	}
	return s
}

// Parse reads the notation produced by String: one character per hex
// ('b', 'w' or '.') followed by ":" and the side to move.
func Parse(s string) (State, error) {
	cells, turn, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return State{}, fmt.Errorf("missing side to move in %q", s)
	}
	if len(cells) != Cells {
		return State{}, fmt.Errorf("expected %d hexes, got %d", Cells, len(cells))
	}
	side, err := strconv.Atoi(turn)
	if err != nil || !game.ValidSide(side) {
		return State{}, fmt.Errorf("invalid side to move %q", turn)
	}

	st := State{turn: side}
	for i := 0; i < Cells; i++ {
		switch cells[i] {
		case 'b':
			st.board[i] = BlackPiece
		case 'w':
			st.board[i] = WhitePiece
		case '.':
		default:
			return State{}, fmt.Errorf("unexpected character %q at hex %d", cells[i], i)
		}
	}
	st.settle()
	return st, nil
}

func (s State) String() string {
	var b strings.Builder
	b.Grow(Cells + 2)
	for _, p := range s.board {
		b.WriteByte(p.rune())
	}
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(s.turn))
	return b.String()
}

// At returns the piece on hex i.
func (s State) At(i int) Piece {
	return s.board[i]
}

// Count returns the number of pieces side has on the board.
func (s State) Count(side int) int {
	p := pieceOf(side)
	n := 0
	for _, c := range s.board {
		if c == p {
			n++
		}
	}
	return n
}

func (s State) Turn() int {
	return s.turn
}

func (s State) Active() bool {
	return !s.over
}

func (s State) Winner() (int, bool) {
	return s.winner, s.over
}

// LegalMoves lists the moves side could play from this position, in board
// order. A decided game has none.
func (s State) LegalMoves(side int) []game.Move {
	if s.over || !game.ValidSide(side) {
		return nil
	}
	moves := make([]game.Move, 0, 3*PiecesPerSide)
	s.eachMove(side, func(m Move) {
		moves = append(moves, m)
	})
	return moves
}

func (s State) countMoves(side int) int {
	n := 0
	s.eachMove(side, func(Move) { n++ })
	return n
}

func (s State) eachMove(side int, fn func(Move)) {
	own := pieceOf(side)
	for i, p := range s.board {
		if p != own {
			continue
		}
		for _, m := range moveTable[side][i] {
			if s.allows(side, m) {
				fn(m)
			}
		}
	}
}

func (s State) allows(side int, m Move) bool {
	dest := s.board[m.To]
	switch m.Kind {
	case Straight:
		return dest == Empty
	case Diagonal:
		return dest != pieceOf(side)
	default:
		return false
	}
}

// Play applies m for the side to move and returns the resulting position.
func (s State) Play(move game.Move) (game.State, error) {
	if s.over {
		return nil, game.ErrGameOver
	}
	m, ok := move.(Move)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected move type %T", game.ErrIllegalMove, move)
	}
	if m.From < 0 || m.From >= Cells || s.board[m.From] != pieceOf(s.turn) || !s.listed(m) || !s.allows(s.turn, m) {
		return nil, fmt.Errorf("%w: %s for side %d", game.ErrIllegalMove, m, s.turn)
	}

	next := s
	next.board[m.To] = next.board[m.From]
	next.board[m.From] = Empty
	next.turn = game.Opponent(s.turn)
	next.settle()
	return next, nil
}

func (s State) listed(m Move) bool {
	for _, candidate := range moveTable[s.turn][m.From] {
		if candidate == m {
			return true
		}
	}
	return false
}

// settle decides the game if the last move reached a goal, took the last
// opposing piece or left the side to move without a legal move.
func (s *State) settle() {
	s.over = false
	switch {
	case s.board[BlackGoal] == BlackPiece:
		s.winner, s.over = game.Black, true
	case s.board[WhiteGoal] == WhitePiece:
		s.winner, s.over = game.White, true
	case s.Count(game.White) == 0:
		s.winner, s.over = game.Black, true
	case s.Count(game.Black) == 0:
		s.winner, s.over = game.White, true
	case s.countMoves(s.turn) == 0:
		s.winner, s.over = game.Opponent(s.turn), true
	}
}
