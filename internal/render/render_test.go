package render

import (
	"strings"
	"testing"

	"github.com/benbeisheim/variantchess-backend/internal/model"
)

func TestDrawPlain(t *testing.T) {
	board, err := model.NewBoard(4)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(Draw(board, nil, false), "\n")
	want := []string{
		"4 ♜  ♛  ♚  ♜ ",
		"3 ♟  ♟  ♟  ♟ ",
		"2 ♙  ♙  ♙  ♙ ",
		"1 ♖  ♕  ♔  ♖ ",
		"  a  b  c  d",
		"",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), strings.Join(lines, "\n"))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if strings.Contains(Draw(board, nil, false), "\x1b[") {
		t.Error("plain drawing contains escape codes")
	}
}

func TestDrawColoredHighlightsLastMove(t *testing.T) {
	board, err := model.NewBoard(6)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := board.MovePiece("b1c3"); err != nil {
		t.Fatal(err)
	}
	last := &model.SimpleMove{From: board.Coord(5, 1), To: board.Coord(3, 2)}
	out := Draw(board, last, true)
	if got := strings.Count(out, highlight); got != 2 {
		t.Errorf("%d highlighted squares, want 2", got)
	}
	if got := strings.Count(out, lightSquare) + strings.Count(out, darkSquare); got != 34 {
		t.Errorf("%d plain squares, want 34", got)
	}
	if !strings.HasPrefix(out, "6"+lightSquare) {
		t.Errorf("a6 should be a light square: %q", out[:20])
	}
}
