// Package render draws boards as text for terminals.
package render

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	lightSquare = "\x1b[48;5;231m"
	darkSquare  = "\x1b[48;5;188m"
	highlight   = "\x1b[43m"
	blackText   = "\x1b[30m"
	reset       = "\x1b[0m"
)

// Draw renders board with rank labels on the left and files underneath.
// Squares of last, if given, are highlighted when colored is set.
func Draw(board *model.Board, last *model.SimpleMove, colored bool) string {
	size := board.Size()
	var sb strings.Builder
	for row := 0; row < size; row++ {
		sb.WriteString(strconv.Itoa(size - row))
		for col := 0; col < size; col++ {
			glyph := " "
			if piece := board.Get(board.Coord(row, col)); piece != nil {
				glyph = string(piece.Glyph())
			}
			cell := " " + glyph + " "
			if colored {
				background := darkSquare
				if col%2 == row%2 {
					background = lightSquare
				}
				if isLastMove(last, row, col) {
					background = highlight
				}
				cell = background + blackText + cell + reset
			}
			sb.WriteString(cell)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(" ")
	for col := 0; col < size; col++ {
		sb.WriteString(" " + string(rune('a'+col)) + " ")
	}
	return strings.TrimRight(sb.String(), " ") + "\n"
}

func isLastMove(last *model.SimpleMove, row, col int) bool {
	if last == nil {
		return false
	}
	return last.From.Row == row && last.From.Col == col || last.To.Row == row && last.To.Col == col
}

// Stdout returns a writer that understands ANSI colours on every platform,
// and whether stdout is a terminal worth colouring.
func Stdout() (io.Writer, bool) {
	fd := os.Stdout.Fd()
	return colorable.NewColorableStdout(), isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
