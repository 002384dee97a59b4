package model

import (
	"iter"
	"slices"
)

// Mode says whether an enumeration is the one a player picks from
// (TopLevel) or an inner "what does the opponent reach" scan (Nested).
// Nested enumeration never generates castling and never filters for
// self-check, so TopLevel -> Nested is the deepest the recursion goes.
type Mode int

const (
	TopLevel Mode = iota
	Nested
)

var (
	rookDirs   = []Coord{{Row: 1, Col: 0}, {Row: -1, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: -1}}
	bishopDirs = []Coord{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	kingDirs   = append(append([]Coord{}, rookDirs...), bishopDirs...)
	knightDirs = []Coord{{Row: 2, Col: 1}, {Row: 2, Col: -1}, {Row: -2, Col: 1}, {Row: -2, Col: -1}, {Row: 1, Col: 2}, {Row: 1, Col: -2}, {Row: -1, Col: 2}, {Row: -1, Col: -2}}
)

// castleSide describes one castling option on an 8x8 board.
type castleSide struct {
	rookCol    int
	emptyCols  []int
	safeCols   []int
	kingTarget int
}

var (
	kingSideCastle  = castleSide{rookCol: 7, emptyCols: []int{5, 6}, safeCols: []int{4, 5, 6}, kingTarget: 6}
	queenSideCastle = castleSide{rookCol: 0, emptyCols: []int{1, 2, 3}, safeCols: []int{2, 3, 4}, kingTarget: 2}
)

// RuleBook knows which moves are legal on a board. It holds no state of its
// own between calls.
type RuleBook struct {
	board *Board
}

func NewRuleBook(board *Board) *RuleBook {
	return &RuleBook{board: board}
}

func (r *RuleBook) Board() *Board {
	return r.board
}

// LegalMoves yields every move of color that passes its capture constraint
// and, at TopLevel, does not leave color's own king attacked. If only is not
// nil, just the piece on that square is considered.
func (r *RuleBook) LegalMoves(color Color, mode Mode, only *Coord) iter.Seq[Move] {
	return func(yield func(Move) bool) {
		for move := range r.candidates(color, mode, only) {
			if !r.satisfiesCapture(move) {
				continue
			}
			if mode == TopLevel && r.leavesKingInCheck(move, color) {
				continue
			}
			if !yield(move) {
				return
			}
		}
	}
}

// Legal returns the top-level legal moves of color as text.
func (r *RuleBook) Legal(color Color) []string {
	moves := []string{}
	for move := range r.LegalMoves(color, TopLevel, nil) {
		moves = append(moves, r.MoveText(move))
	}
	return moves
}

// HasLegalMoves stops at the first legal move.
func (r *RuleBook) HasLegalMoves(color Color) bool {
	for range r.LegalMoves(color, TopLevel, nil) {
		return true
	}
	return false
}

// Find returns the legal move of color that text ("e2e4", "e2xd3") names.
func (r *RuleBook) Find(color Color, text string) (Move, bool) {
	start, dest, err := CoordsFromMove(r.board.size, text)
	if err != nil || r.board.ColorAt(start) != color {
		return Move{}, false
	}
	for move := range r.LegalMoves(color, TopLevel, &start) {
		if move.To == dest {
			return move, true
		}
	}
	return Move{}, false
}

// MoveText renders a move as "e2e4", or "e7xd8" when it captures.
func (r *RuleBook) MoveText(move Move) string {
	taking := ""
	if r.board.Taking(move.From, move.To) || move.Kind == MustTakeEnPassant {
		taking = "x"
	}
	return move.From.Position() + taking + move.To.Position()
}

// IsChecked reports whether color's king can be captured by the opponent.
// A board without that king is never in check.
func (r *RuleBook) IsChecked(color Color) bool {
	king, ok := r.board.kingSquare(color)
	if !ok {
		return false
	}
	return r.Attacked(color.Other(), king)
}

// Attacked reports whether a nested move of by lands on any of squares.
// Check detection and castling safety both go through here, so a pawn
// attacks only where it could actually capture or push.
func (r *RuleBook) Attacked(by Color, squares ...Coord) bool {
	for move := range r.LegalMoves(by, Nested, nil) {
		if slices.Contains(squares, move.To) {
			return true
		}
	}
	return false
}

func (r *RuleBook) leavesKingInCheck(move Move, color Color) bool {
	after := r.board.Clone()
	after.Move(move.From, move.To)
	return NewRuleBook(after).IsChecked(color)
}

func (r *RuleBook) satisfiesCapture(move Move) bool {
	switch move.Kind {
	case CannotTake:
		return r.board.Empty(move.To)
	case MustTake:
		return r.board.Taking(move.From, move.To)
	case CanTake:
		return r.board.Empty(move.To) || r.board.Taking(move.From, move.To)
	case MustTakeEnPassant:
		return true
	}
	return false
}

// candidates yields the pseudo-legal destinations of every piece of color,
// tagged with their capture constraint.
func (r *RuleBook) candidates(color Color, mode Mode, only *Coord) iter.Seq[Move] {
	return func(yield func(Move) bool) {
		if color == NoColor {
			return
		}
		size := r.board.size
		for row := 0; row < size; row++ {
			if only != nil && row != only.Row {
				continue
			}
			for col := 0; col < size; col++ {
				if only != nil && col != only.Col {
					continue
				}
				from := NewCoord(size, row, col)
				if r.board.ColorAt(from) != color {
					continue
				}
				if !r.pieceCandidates(from, mode, yield) {
					return
				}
			}
		}
	}
}

func (r *RuleBook) pieceCandidates(from Coord, mode Mode, yield func(Move) bool) bool {
	piece := r.board.Get(from)
	switch piece.Type {
	case Rook:
		return r.slide(from, rookDirs, yield)
	case Bishop:
		return r.slide(from, bishopDirs, yield)
	case Queen:
		return r.slide(from, kingDirs, yield)
	case Knight:
		return r.step(from, knightDirs, yield)
	case King:
		if !r.step(from, kingDirs, yield) {
			return false
		}
		if mode == TopLevel && r.board.size == 8 && from.Col == 4 {
			for _, side := range []castleSide{kingSideCastle, queenSideCastle} {
				if move, ok := r.findCastleMove(from, side); ok && !yield(move) {
					return false
				}
			}
		}
		return true
	case Pawn:
		return r.pawnCandidates(from, *piece, yield)
	}
	return true
}

// slide scans each ray until the edge, stopping before a piece of the same
// colour and after the first piece of the other.
func (r *RuleBook) slide(from Coord, dirs []Coord, yield func(Move) bool) bool {
	color := r.board.ColorAt(from)
	for _, dir := range dirs {
		for to := from.Add(dir.Row, dir.Col); !to.OutsideBoard(); to = to.Add(dir.Row, dir.Col) {
			target := r.board.ColorAt(to)
			if target == color {
				break
			}
			if !yield(Move{From: from, To: to, Kind: CanTake}) {
				return false
			}
			if target != NoColor {
				break
			}
		}
	}
	return true
}

func (r *RuleBook) step(from Coord, dirs []Coord, yield func(Move) bool) bool {
	for _, dir := range dirs {
		to := from.Add(dir.Row, dir.Col)
		if to.OutsideBoard() {
			continue
		}
		if !yield(Move{From: from, To: to, Kind: CanTake}) {
			return false
		}
	}
	return true
}

func (r *RuleBook) pawnCandidates(from Coord, pawn Piece, yield func(Move) bool) bool {
	dir := pawn.Color.forward()
	moves := []Move{}
	if to := from.Add(dir, 0); !to.OutsideBoard() {
		moves = append(moves, Move{From: from, To: to, Kind: CannotTake})
	}
	for _, side := range []int{1, -1} {
		if to := from.Add(dir, side); !to.OutsideBoard() {
			moves = append(moves, Move{From: from, To: to, Kind: MustTake})
		}
	}
	pawnRow := homeRow(r.board.size, pawn.Color) + dir
	if to := from.Add(2*dir, 0); from.Row == pawnRow && !to.OutsideBoard() && r.board.Empty(from.Add(dir, 0)) {
		moves = append(moves, Move{From: from, To: to, Kind: CannotTake})
	}
	if r.board.size == 8 {
		// The rank an opposing pawn lands on after its double step.
		if from.Row == homeRow(r.board.size, pawn.Color.Other())-3*dir {
			for _, side := range []int{1, -1} {
				if move, ok := r.enPassant(from, pawn, side); ok {
					moves = append(moves, move)
				}
			}
		}
	}
	for _, move := range moves {
		if !yield(move) {
			return false
		}
	}
	return true
}

// enPassant checks the pawn beside from and the previous snapshot: the
// opposing pawn must have come from two ranks further back on the last ply.
// Only one snapshot is kept, so older double steps can never qualify.
func (r *RuleBook) enPassant(from Coord, pawn Piece, side int) (Move, bool) {
	beside := from.Add(0, side)
	if beside.OutsideBoard() {
		return Move{}, false
	}
	opposing := Piece{Type: Pawn, Color: pawn.Color.Other()}
	if p := r.board.Get(beside); p == nil || *p != opposing {
		return Move{}, false
	}
	previous := r.board.previous
	if previous == nil {
		return Move{}, false
	}
	dir := pawn.Color.forward()
	origin := beside.Add(2*dir, 0)
	if p := previous.Get(origin); p == nil || *p != opposing || !r.board.Empty(origin) || !previous.Empty(beside) {
		return Move{}, false
	}
	return Move{From: from, To: from.Add(dir, side), Kind: MustTakeEnPassant}, true
}

// findCastleMove returns the two-square king move for side when the king and
// that rook are unmoved on their home squares, the squares between them are
// empty, and the king neither starts, passes nor lands on an attacked square.
func (r *RuleBook) findCastleMove(king Coord, side castleSide) (Move, bool) {
	color := r.board.ColorAt(king)
	row := homeRow(r.board.size, color)
	if king.Row != row {
		return Move{}, false
	}
	for _, col := range side.emptyCols {
		if !r.board.Empty(r.board.Coord(row, col)) {
			return Move{}, false
		}
	}
	if rook := r.board.Get(r.board.Coord(row, side.rookCol)); rook == nil || *rook != (Piece{Type: Rook, Color: color}) {
		return Move{}, false
	}
	movements := r.board.movements
	if movements.KingHasMoved(color) {
		return Move{}, false
	}
	if side.rookCol == 0 && movements.QueenSideRookHasMoved(color) {
		return Move{}, false
	}
	if side.rookCol != 0 && movements.KingSideRookHasMoved(color) {
		return Move{}, false
	}
	safe := make([]Coord, 0, len(side.safeCols))
	for _, col := range side.safeCols {
		safe = append(safe, r.board.Coord(row, col))
	}
	if r.Attacked(color.Other(), safe...) {
		return Move{}, false
	}
	return Move{From: king, To: r.board.Coord(row, side.kingTarget), Kind: CannotTake}, true
}
