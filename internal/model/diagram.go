package model

import (
	"regexp"
	"strings"
)

var rankPrefix = regexp.MustCompile(`^\d+ ?`)

// isFileFooter matches the "  abcdefgh" line under a diagram.
func isFileFooter(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) >= 2 && strings.HasPrefix("abcdefgh", trimmed)
}

// Setup reads a board diagram such as
//
//	8  ▒ ▒ ▒ ▒
//	...
//	1 ▒ ▒ ♔ ▒♖
//	  abcdefgh
//
// Missing ranks and files are filled with empty squares; nothing is
// rejected. The board as it was before becomes the previous snapshot.
func (b *Board) Setup(contents string) {
	previous := b.Clone()
	lines := []string{}
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimRight(line, "\r")
		if isFileFooter(line) {
			continue
		}
		lines = append(lines, rankPrefix.ReplaceAllString(line, ""))
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" && len(lines) > b.size {
		lines = lines[:len(lines)-1]
	}

	grid := make([][]*Piece, b.size)
	for row := range grid {
		grid[row] = make([]*Piece, b.size)
		if row >= len(lines) {
			continue
		}
		col := 0
		for _, r := range lines[row] {
			if col >= b.size {
				break
			}
			grid[row][col] = diagramPiece(r)
			col++
		}
	}
	b.squares = grid
	b.previous = previous
}

func diagramPiece(r rune) *Piece {
	switch r {
	case ' ', '▒', '.', '-':
		return nil
	}
	if piece, ok := pieceFromGlyph(r); ok {
		return piece
	}
	if piece, ok := pieceFromLetter(r); ok {
		return piece
	}
	return nil
}

// Diagram is the plain form Setup reads: one line per rank, a space per
// empty square, no labels.
func (b *Board) Diagram() string {
	lines := make([]string, b.size)
	for row, rank := range b.squares {
		var sb strings.Builder
		for _, piece := range rank {
			if piece == nil {
				sb.WriteRune(' ')
				continue
			}
			sb.WriteRune(piece.Glyph())
		}
		lines[row] = strings.TrimRight(sb.String(), " ")
	}
	return strings.Join(lines, "\n")
}
