package model

import (
	"errors"
	"testing"
	"time"
)

func newTestGame(t *testing.T, size int) *Game {
	t.Helper()
	g, err := NewGame("game", size, TimeControl{})
	if err != nil {
		t.Fatal(err)
	}
	if c, err := g.AddPlayer("alice", false); err != nil || c != White {
		t.Fatalf("AddPlayer(alice) = %s, %v", c, err)
	}
	if c, err := g.AddPlayer("bob", false); err != nil || c != Black {
		t.Fatalf("AddPlayer(bob) = %s, %v", c, err)
	}
	return g
}

func TestAddPlayer(t *testing.T) {
	g := newTestGame(t, 8)
	if _, err := g.AddPlayer("carol", false); !errors.Is(err, ErrGameFull) {
		t.Errorf("third player error = %v, want ErrGameFull", err)
	}
	if c, err := g.AddPlayer("bob", false); err != nil || c != Black {
		t.Errorf("rejoining = %s, %v, want black", c, err)
	}
	if g.ColorOf("carol") != NoColor || !g.IsPlayerInGame("alice") {
		t.Error("membership is wrong")
	}
}

func TestNewGameRejectsSize(t *testing.T) {
	if _, err := NewGame("g", 7, TimeControl{}); !errors.Is(err, ErrUnsupportedSize) {
		t.Errorf("error = %v, want ErrUnsupportedSize", err)
	}
}

func TestMakeMoveChecks(t *testing.T) {
	g := newTestGame(t, 8)
	tests := []struct {
		player string
		move   string
		want   error
	}{
		{"carol", "e2e4", ErrNotInGame},
		{"bob", "e7e5", ErrNotYourTurn},
		{"alice", "e2e5", ErrIllegalMove},
		{"alice", "e2e4", nil},
		{"alice", "d2d4", ErrNotYourTurn},
		{"bob", "e7e5", nil},
	}
	for _, tt := range tests {
		if err := g.MakeMove(tt.player, tt.move); !errors.Is(err, tt.want) {
			t.Errorf("%s plays %s: error = %v, want %v", tt.player, tt.move, err, tt.want)
		}
	}
	state := g.GetState()
	if state.ToMove != White || len(state.MoveHistory) != 1 {
		t.Fatalf("to move %s with %d move pairs", state.ToMove, len(state.MoveHistory))
	}
	if got := state.MoveHistory[0].BlackPly.Notation; got != "e5" {
		t.Errorf("notation = %q, want e5", got)
	}
	if state.LastMove == nil || state.LastMove.To.Position() != "e5" {
		t.Errorf("last move = %+v", state.LastMove)
	}
	if state.FEN != "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2" {
		t.Errorf("FEN = %s", state.FEN)
	}
}

func TestFoolsMateGame(t *testing.T) {
	g := newTestGame(t, 8)
	for i, move := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		if err := g.MakeMove(player, move); err != nil {
			t.Fatalf("%s: %v", move, err)
		}
	}
	state := g.GetState()
	if state.Resolve != Checkmate || state.Winner != Black {
		t.Errorf("result %q winner %q, want checkmate by black", state.Resolve, state.Winner)
	}
	if got := state.MoveHistory[1].BlackPly.Notation; got != "Qh4#" {
		t.Errorf("notation = %q, want Qh4#", got)
	}
	if len(state.LegalMoves) != 0 {
		t.Errorf("finished game still lists moves: %v", state.LegalMoves)
	}
	if err := g.MakeMove("alice", "a2a3"); !errors.Is(err, ErrGameOver) {
		t.Errorf("move after mate: %v, want ErrGameOver", err)
	}
}

func TestThreefoldRepetition(t *testing.T) {
	g := newTestGame(t, 8)
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for round := 0; round < 2; round++ {
		for i, move := range shuffle {
			player := "alice"
			if i%2 == 1 {
				player = "bob"
			}
			if err := g.MakeMove(player, move); err != nil {
				t.Fatalf("round %d %s: %v", round, move, err)
			}
		}
	}
	state := g.GetState()
	if state.Resolve != ThreefoldRepetition || state.Winner != NoColor {
		t.Errorf("result %q winner %q, want a threefold draw", state.Resolve, state.Winner)
	}
}

func TestCastlingNotation(t *testing.T) {
	g := newTestGame(t, 8)
	moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1"}
	for i, move := range moves {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		if err := g.MakeMove(player, move); err != nil {
			t.Fatalf("%s: %v", move, err)
		}
	}
	state := g.GetState()
	ply := state.MoveHistory[3].WhitePly
	if ply.Notation != "O-O" || ply.CastleRookMove == nil || ply.CastleRookMove.To.Position() != "f1" {
		t.Errorf("castling ply = %+v", ply)
	}
	if state.Sound != "castle" {
		t.Errorf("sound = %q, want castle", state.Sound)
	}
}

func TestResignAndDraw(t *testing.T) {
	g := newTestGame(t, 6)
	if err := g.Resign("carol"); !errors.Is(err, ErrNotInGame) {
		t.Errorf("outsider resign: %v", err)
	}
	if err := g.Resign("alice"); err != nil {
		t.Fatal(err)
	}
	if state := g.GetState(); state.Resolve != Resignation || state.Winner != Black {
		t.Errorf("result %q winner %q", state.Resolve, state.Winner)
	}

	g = newTestGame(t, 6)
	if err := g.OfferDraw("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.OfferDraw("alice"); err != nil {
		t.Fatal(err)
	}
	if state := g.GetState(); state.Resolve != Ongoing || state.DrawOffer != White {
		t.Fatalf("repeated offer: result %q offer %q", state.Resolve, state.DrawOffer)
	}
	if err := g.OfferDraw("bob"); err != nil {
		t.Fatal(err)
	}
	if state := g.GetState(); state.Resolve != Agreement || state.Winner != NoColor {
		t.Errorf("result %q winner %q, want agreement", state.Resolve, state.Winner)
	}
}

func TestMoveClearsDrawOffer(t *testing.T) {
	g := newTestGame(t, 8)
	if err := g.OfferDraw("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.MakeMove("alice", "e2e4"); err != nil {
		t.Fatal(err)
	}
	if offer := g.GetState().DrawOffer; offer != NoColor {
		t.Errorf("draw offer %q survived a move", offer)
	}
}

func TestTimeout(t *testing.T) {
	g, err := NewGame("timed", 8, TimeControl{Initial: 30 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	g.AddPlayer("alice", false)
	g.AddPlayer("bob", false)
	if err := g.MakeMove("alice", "e2e4"); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	g.blackClock.now = func() time.Time { return later }
	if err := g.MakeMove("bob", "e7e5"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("late move: %v, want ErrGameOver", err)
	}
	state := g.GetState()
	if state.Resolve != Timeout || state.Winner != White {
		t.Errorf("result %q winner %q, want timeout won by white", state.Resolve, state.Winner)
	}
	if state.Players.Black.TimeLeft != 0 {
		t.Errorf("black shows %d tenths left", state.Players.Black.TimeLeft)
	}
}

func TestFlagFallsWhileIdle(t *testing.T) {
	g, err := NewGame("idle", 8, TimeControl{Initial: 30 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	g.AddPlayer("alice", false)
	g.AddPlayer("bob", false)
	if err := g.MakeMove("alice", "e2e4"); err != nil {
		t.Fatal(err)
	}
	if _, over := g.FinishedAt(); over {
		t.Fatal("game over before any time passed")
	}

	later := time.Now().Add(time.Minute)
	g.blackClock.now = func() time.Time { return later }
	g.now = func() time.Time { return later }
	state := g.GetState()
	if state.Resolve != Timeout || state.Winner != White {
		t.Errorf("result %q winner %q, want timeout won by white", state.Resolve, state.Winner)
	}
	if at, over := g.FinishedAt(); !over || !at.Equal(later) {
		t.Errorf("FinishedAt = %v, %v", at, over)
	}
	if err := g.OfferDraw("alice"); !errors.Is(err, ErrGameOver) {
		t.Errorf("draw offer after flag fall: %v", err)
	}
}

func TestGetStateIsACopy(t *testing.T) {
	g := newTestGame(t, 4)
	state := g.GetState()
	state.LegalMoves[0] = "tampered"
	if g.GetState().LegalMoves[0] == "tampered" {
		t.Error("GetState shares the legal move slice")
	}
}

func TestPositionReturnsClone(t *testing.T) {
	g := newTestGame(t, 4)
	board, toMove, over := g.Position()
	if toMove != White || over {
		t.Fatalf("to move %s over %v", toMove, over)
	}
	board.Setup("")
	if b, _, _ := g.Position(); b.Notation() != "rqkr/pppp/PPPP/RQKR" {
		t.Error("Position exposed the live board")
	}
}
