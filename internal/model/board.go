package model

import (
	"errors"
	"fmt"
	"strings"
)

type PieceType string

func (p PieceType) getPieceNotation() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return ""
	}
	return ""
}

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// Piece is never mutated once placed on a board, so clones may share them.
type Piece struct {
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
}

var (
	ErrUnsupportedSize = errors.New("unsupported board size")
	ErrNoPiece         = errors.New("no piece at from square")
)

// SupportedSizes lists the board sizes that have an initial layout.
var SupportedSizes = []int{4, 6, 8}

var initialBackRanks = map[int][]PieceType{
	4: {Rook, Queen, King, Rook},
	6: {Rook, Knight, Queen, King, Knight, Rook},
	8: {Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook},
}

// Board is the grid plus everything move() has to keep track of. Row 0 is
// Black's back rank.
type Board struct {
	size      int
	squares   [][]*Piece
	movements MovementRecord
	halfMoves int
	captured  CapturedPieces
	previous  *Board
}

type CapturedPieces struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]Piece, 0),
		Black: make([]Piece, 0),
	}
}

// NewBoard returns the starting layout for size.
func NewBoard(size int) (*Board, error) {
	backRank, ok := initialBackRanks[size]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSize, size)
	}
	board := newEmptyBoard(size)
	for col, pieceType := range backRank {
		board.squares[0][col] = &Piece{Type: pieceType, Color: Black}
		board.squares[1][col] = &Piece{Type: Pawn, Color: Black}
		board.squares[size-2][col] = &Piece{Type: Pawn, Color: White}
		board.squares[size-1][col] = &Piece{Type: pieceType, Color: White}
	}
	return board, nil
}

func newEmptyBoard(size int) *Board {
	board := &Board{
		size:     size,
		captured: newCapturedPieces(),
	}
	for i := 0; i < size; i++ {
		board.squares = append(board.squares, make([]*Piece, size))
	}
	return board
}

// Clone deep-copies the grid, the movement record and the capture lists. The
// clone's previous snapshot is always nil.
func (b *Board) Clone() *Board {
	clone := newEmptyBoard(b.size)
	for row := range b.squares {
		copy(clone.squares[row], b.squares[row])
	}
	clone.movements = b.movements
	clone.halfMoves = b.halfMoves
	clone.captured.White = append(clone.captured.White, b.captured.White...)
	clone.captured.Black = append(clone.captured.Black, b.captured.Black...)
	return clone
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) Coord(row, col int) Coord {
	return NewCoord(b.size, row, col)
}

// Previous is the board as it was before the last Move, or nil.
func (b *Board) Previous() *Board {
	return b.previous
}

func (b *Board) Get(c Coord) *Piece {
	return b.squares[c.Row][c.Col]
}

func (b *Board) Empty(c Coord) bool {
	return b.Get(c) == nil
}

func (b *Board) ColorAt(c Coord) Color {
	if piece := b.Get(c); piece != nil {
		return piece.Color
	}
	return NoColor
}

// Taking reports whether dest holds a piece of the other colour than start.
func (b *Board) Taking(start, dest Coord) bool {
	from, to := b.ColorAt(start), b.ColorAt(dest)
	return from != NoColor && to != NoColor && from != to
}

func (b *Board) Movements() MovementRecord {
	return b.movements
}

func (b *Board) Captured() CapturedPieces {
	return b.captured
}

func (b *Board) HalfMoveClock() int {
	return b.halfMoves
}

// Squares returns a copy of the grid, suitable for serialising.
func (b *Board) Squares() [][]*Piece {
	grid := make([][]*Piece, b.size)
	for row := range b.squares {
		grid[row] = append([]*Piece(nil), b.squares[row]...)
	}
	return grid
}

// Move applies start->dest without checking legality.
func (b *Board) Move(start, dest Coord) {
	b.previous = b.Clone()
	piece := b.Get(start)
	if piece == nil {
		return
	}
	captured := false

	if piece.Type == Pawn && start.Col != dest.Col && b.Empty(dest) {
		passed := NewCoord(b.size, start.Row, dest.Col)
		if taken := b.Get(passed); taken != nil {
			b.recordCapture(piece.Color, *taken)
			captured = true
		}
		b.squares[passed.Row][passed.Col] = nil
	}

	if taken := b.Get(dest); taken != nil {
		b.recordCapture(piece.Color, *taken)
		captured = true
	}
	placed := piece
	if piece.Type == Pawn && (dest.Row == 0 || dest.Row == b.size-1) {
		placed = &Piece{Type: Queen, Color: piece.Color}
	}
	b.squares[dest.Row][dest.Col] = placed
	b.squares[start.Row][start.Col] = nil

	b.movements.update(*piece, start)

	if piece.Type == King && abs(dest.Col-start.Col) == 2 {
		rookCol := 0
		if dest.Col > start.Col {
			rookCol = b.size - 1
		}
		rook := b.squares[start.Row][rookCol]
		b.squares[start.Row][rookCol] = nil
		b.squares[start.Row][start.Col+(dest.Col-start.Col)/2] = rook
	}

	if piece.Type == Pawn || captured {
		b.halfMoves = 0
	} else {
		b.halfMoves++
	}
}

func (b *Board) recordCapture(by Color, taken Piece) {
	switch by {
	case White:
		b.captured.White = append(b.captured.White, taken)
	case Black:
		b.captured.Black = append(b.captured.Black, taken)
	}
}

// MovePiece parses text such as "e2e4" and applies it, returning the start
// and destination as {startRow, startCol, destRow, destCol}.
func (b *Board) MovePiece(text string) ([4]int, error) {
	start, dest, err := CoordsFromMove(b.size, text)
	if err != nil {
		return [4]int{}, err
	}
	if b.Empty(start) {
		return [4]int{}, fmt.Errorf("%w: %s", ErrNoPiece, start.Position())
	}
	b.Move(start, dest)
	return [4]int{start.Row, start.Col, dest.Row, dest.Col}, nil
}

// InsufficientMaterial is a simplified rule: no queen, rook or pawn anywhere
// and fewer than two minor pieces in total.
func (b *Board) InsufficientMaterial() bool {
	minors := 0
	for _, rank := range b.squares {
		for _, piece := range rank {
			if piece == nil {
				continue
			}
			switch piece.Type {
			case Queen, Rook, Pawn:
				return false
			case Bishop, Knight:
				minors++
			}
		}
	}
	return minors < 2
}

func (b *Board) FiftyMoves() bool {
	return b.halfMoves >= 100
}

// Notation serialises the grid rank by rank. Equal grids give equal keys.
func (b *Board) Notation() string {
	ranks := make([]string, b.size)
	for row, rank := range b.squares {
		var sb strings.Builder
		for _, piece := range rank {
			if piece == nil {
				sb.WriteByte('.')
				continue
			}
			sb.WriteByte(piece.Letter())
		}
		ranks[row] = sb.String()
	}
	return strings.Join(ranks, "/")
}

func (b *Board) kingSquare(color Color) (Coord, bool) {
	for row, rank := range b.squares {
		for col, piece := range rank {
			if piece != nil && piece.Type == King && piece.Color == color {
				return NewCoord(b.size, row, col), true
			}
		}
	}
	return Coord{}, false
}

// homeRow is the back rank of color.
func homeRow(size int, color Color) int {
	if color == White {
		return size - 1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
