package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadFEN = errors.New("bad FEN")

// FEN returns the piece placement field only.
func (b *Board) FEN() string {
	ranks := make([]string, b.size)
	for row, rank := range b.squares {
		var sb strings.Builder
		empty := 0
		for _, piece := range rank {
			if piece == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(piece.Letter())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		ranks[row] = sb.String()
	}
	return strings.Join(ranks, "/")
}

// FullFEN returns all six FEN fields, for handing the position to an
// external engine.
func (b *Board) FullFEN(toMove Color, fullMove int) string {
	side := "w"
	if toMove == Black {
		side = "b"
	}
	if fullMove < 1 {
		fullMove = 1
	}
	return fmt.Sprintf("%s %s %s %s %d %d", b.FEN(), side, b.castlingField(),
		b.enPassantField(toMove), b.halfMoves, fullMove)
}

func (b *Board) castlingField() string {
	if b.size != 8 {
		return "-"
	}
	var sb strings.Builder
	for _, color := range []Color{White, Black} {
		row := homeRow(b.size, color)
		king := b.squares[row][4]
		if king == nil || king.Type != King || king.Color != color || b.movements.KingHasMoved(color) {
			continue
		}
		kingSide, queenSide := byte('k'), byte('q')
		if color == White {
			kingSide, queenSide = 'K', 'Q'
		}
		if rook := b.squares[row][7]; rook != nil && *rook == (Piece{Type: Rook, Color: color}) &&
			!b.movements.KingSideRookHasMoved(color) {
			sb.WriteByte(kingSide)
		}
		if rook := b.squares[row][0]; rook != nil && *rook == (Piece{Type: Rook, Color: color}) &&
			!b.movements.QueenSideRookHasMoved(color) {
			sb.WriteByte(queenSide)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func (b *Board) enPassantField(toMove Color) string {
	if b.size != 8 || b.previous == nil {
		return "-"
	}
	mover := toMove.Other()
	dir := mover.forward()
	origin := homeRow(b.size, mover) + dir
	landing := origin + 2*dir
	pawn := Piece{Type: Pawn, Color: mover}
	for col := 0; col < b.size; col++ {
		before := b.previous.squares[origin][col]
		after := b.squares[landing][col]
		if before != nil && *before == pawn && b.squares[origin][col] == nil &&
			after != nil && *after == pawn && b.previous.squares[landing][col] == nil {
			return NewCoord(b.size, origin+dir, col).Position()
		}
	}
	return "-"
}

// SetupFEN replaces the board with the position in fen and returns the side
// to move. Only the placement field is required. An absent castling right
// marks the matching rook as moved, and an en passant square recreates the
// previous snapshot so the capture is available.
func (b *Board) SetupFEN(fen string) (Color, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return NoColor, fmt.Errorf("%w: empty", ErrBadFEN)
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != b.size {
		return NoColor, fmt.Errorf("%w: %d ranks on a %dx%d board", ErrBadFEN, len(ranks), b.size, b.size)
	}
	board := newEmptyBoard(b.size)
	for row, rank := range ranks {
		col := 0
		for _, r := range rank {
			if r >= '1' && r <= '9' {
				col += int(r - '0')
				continue
			}
			piece, ok := pieceFromLetter(r)
			if !ok || col >= b.size {
				return NoColor, fmt.Errorf("%w: rank %q", ErrBadFEN, rank)
			}
			board.squares[row][col] = piece
			col++
		}
		if col != b.size {
			return NoColor, fmt.Errorf("%w: rank %q has %d files", ErrBadFEN, rank, col)
		}
	}

	toMove := White
	if len(fields) > 1 {
		color, ok := ParseColor(fields[1])
		if !ok {
			return NoColor, fmt.Errorf("%w: side to move %q", ErrBadFEN, fields[1])
		}
		toMove = color
	}
	if len(fields) > 2 {
		board.applyCastlingField(strings.Trim(fields[2], "-"))
	}
	if len(fields) > 3 && fields[3] != "-" {
		if err := board.applyEnPassantField(fields[3], toMove); err != nil {
			return NoColor, err
		}
	}
	if len(fields) > 4 {
		halfMoves, err := strconv.Atoi(fields[4])
		if err != nil || halfMoves < 0 {
			return NoColor, fmt.Errorf("%w: half-move clock %q", ErrBadFEN, fields[4])
		}
		board.halfMoves = halfMoves
	}
	*b = *board
	return toMove, nil
}

func (b *Board) applyCastlingField(field string) {
	b.movements.White.KingSideRook = !strings.ContainsRune(field, 'K')
	b.movements.White.QueenSideRook = !strings.ContainsRune(field, 'Q')
	b.movements.Black.KingSideRook = !strings.ContainsRune(field, 'k')
	b.movements.Black.QueenSideRook = !strings.ContainsRune(field, 'q')
}

func (b *Board) applyEnPassantField(field string, toMove Color) error {
	target, err := CoordFromPosition(b.size, field)
	if err != nil {
		return fmt.Errorf("%w: en passant square: %w", ErrBadFEN, err)
	}
	mover := toMove.Other()
	landing := target.Add(mover.forward(), 0)
	origin := target.Add(-mover.forward(), 0)
	pawn := Piece{Type: Pawn, Color: mover}
	if landing.OutsideBoard() || origin.OutsideBoard() {
		return fmt.Errorf("%w: en passant square %s", ErrBadFEN, field)
	}
	if p := b.Get(landing); p == nil || *p != pawn {
		return fmt.Errorf("%w: no pawn in front of en passant square %s", ErrBadFEN, field)
	}
	previous := b.Clone()
	previous.squares[landing.Row][landing.Col] = nil
	previous.squares[origin.Row][origin.Col] = &Piece{Type: Pawn, Color: mover}
	b.previous = previous
	return nil
}
