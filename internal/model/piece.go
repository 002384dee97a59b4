package model

import "unicode"

var pieceLetters = map[PieceType]byte{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

var whiteGlyphs = map[PieceType]rune{
	King: '♔', Queen: '♕', Rook: '♖', Bishop: '♗', Knight: '♘', Pawn: '♙',
}

var blackGlyphs = map[PieceType]rune{
	King: '♚', Queen: '♛', Rook: '♜', Bishop: '♝', Knight: '♞', Pawn: '♟',
}

// Letter is the FEN letter, upper case for White.
func (p Piece) Letter() byte {
	letter := pieceLetters[p.Type]
	if p.Color == White {
		return letter - 'a' + 'A'
	}
	return letter
}

// Glyph is the unicode chess symbol used in board diagrams.
func (p Piece) Glyph() rune {
	if p.Color == White {
		return whiteGlyphs[p.Type]
	}
	return blackGlyphs[p.Type]
}

func pieceFromLetter(r rune) (*Piece, bool) {
	color := Black
	if unicode.IsUpper(r) {
		color = White
	}
	lower := byte(unicode.ToLower(r))
	for pieceType, letter := range pieceLetters {
		if letter == lower {
			return &Piece{Type: pieceType, Color: color}, true
		}
	}
	return nil, false
}

func pieceFromGlyph(r rune) (*Piece, bool) {
	for pieceType, glyph := range whiteGlyphs {
		if glyph == r {
			return &Piece{Type: pieceType, Color: White}, true
		}
	}
	for pieceType, glyph := range blackGlyphs {
		if glyph == r {
			return &Piece{Type: pieceType, Color: Black}, true
		}
	}
	return nil, false
}
