package brain

import (
	"context"
	"errors"
	"testing"

	"github.com/benbeisheim/variantchess-backend/internal/model"
)

func setupBoard(t *testing.T, size int, diagram string) *model.Board {
	t.Helper()
	board, err := model.NewBoard(size)
	if err != nil {
		t.Fatal(err)
	}
	board.Setup(diagram)
	return board
}

func TestPrefersMate(t *testing.T) {
	board := setupBoard(t, 8, `8  ▒ ▒ ▒ ▒
7 ▒ ▒ ▒ ▒
6  ▒ ▒ ▒ ▒
5 ▒ ▒ ▒ ▒
4  ▒ ▒ ▒ ▒
3 ▒ ▒ ♛ ▒
2  ♚ ▒ ▒ ♜
1 ▒ ▒♔▒ ▒
  abcdefgh
`)
	for seed := uint64(1); seed <= 20; seed++ {
		b := board.Clone()
		move, err := New(seed).ChooseMove(context.Background(), b, model.Black)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := b.MovePiece(move); err != nil {
			t.Fatal(err)
		}
		rules := model.NewRuleBook(b)
		if !rules.IsChecked(model.White) || rules.HasLegalMoves(model.White) {
			t.Errorf("seed %d: %s is not mate", seed, move)
		}
		if _, err := New(seed).ChooseMove(context.Background(), b, model.White); !errors.Is(err, ErrNoLegalMoves) {
			t.Errorf("seed %d: white should have no moves, got %v", seed, err)
		}
	}
}

func TestPrefersCheckOverCapture(t *testing.T) {
	// Rg1-g8 checks; Rg1xc1 would only capture.
	board := setupBoard(t, 8, "k\n\n\n\n\n\n\n  n   RK")
	move, err := New(3).ChooseMove(context.Background(), board, model.White)
	if err != nil {
		t.Fatal(err)
	}
	if move != "g1g8" {
		t.Errorf("chose %s, want the check g1g8", move)
	}
}

func TestPrefersCapture(t *testing.T) {
	board, err := model.NewBoard(8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := board.SetupFEN("4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1"); err != nil {
		t.Fatal(err)
	}
	for seed := uint64(1); seed <= 10; seed++ {
		move, err := New(seed).ChooseMove(context.Background(), board, model.White)
		if err != nil {
			t.Fatal(err)
		}
		if move != "e4xd5" {
			t.Errorf("seed %d chose %s, want e4xd5", seed, move)
		}
	}
}

func TestAvoidsAttackedSquares(t *testing.T) {
	// Nb1-d2 walks into the rook on d8; every other move is safe.
	board := setupBoard(t, 8, "   r   k\n\n\n\n\n\n\n N     K")
	for seed := uint64(1); seed <= 20; seed++ {
		move, err := New(seed).ChooseMove(context.Background(), board, model.White)
		if err != nil {
			t.Fatal(err)
		}
		if move == "b1d2" {
			t.Errorf("seed %d moved onto an attacked square", seed)
		}
	}
}

func TestSameSeedSameChoice(t *testing.T) {
	board, _ := model.NewBoard(6)
	first, err := New(42).ChooseMove(context.Background(), board, model.White)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := New(42).ChooseMove(context.Background(), board, model.White)
	if first != second {
		t.Errorf("seeded brains disagree: %s vs %s", first, second)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	board, _ := model.NewBoard(4)
	if _, err := New(1).ChooseMove(ctx, board, model.White); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
