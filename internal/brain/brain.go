// Package brain picks a move by looking one ply ahead: it prefers mate, then
// check, then castling, then captures, and avoids landing where the opponent
// can capture.
package brain

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbeisheim/variantchess-backend/internal/model"
)

var ErrNoLegalMoves = errors.New("no legal moves")

// Brain is safe for concurrent use by several games.
type Brain struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Brain whose choices are reproducible for a given seed.
func New(seed uint64) *Brain {
	return &Brain{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func NewRandom() *Brain {
	return New(uint64(time.Now().UnixNano()))
}

type candidate struct {
	move    model.Move
	mate    bool
	check   bool
	castle  bool
	capture bool
	landing model.Coord
}

func (b *Brain) ChooseMove(ctx context.Context, board *model.Board, color model.Color) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rules := model.NewRuleBook(board)
	var all []candidate
	for move := range rules.LegalMoves(color, model.TopLevel, nil) {
		all = append(all, classify(board, move, color))
	}
	if len(all) == 0 {
		return "", ErrNoLegalMoves
	}

	chosen := all
	for _, prefer := range []func(candidate) bool{
		func(c candidate) bool { return c.mate },
		func(c candidate) bool { return c.check },
		func(c candidate) bool { return c.castle },
		func(c candidate) bool { return c.capture },
	} {
		if best := filter(all, prefer); len(best) > 0 {
			chosen = best
			break
		}
	}

	for reply := range rules.LegalMoves(color.Other(), model.Nested, nil) {
		if reply.Kind == model.CannotTake {
			continue
		}
		safe := filter(chosen, func(c candidate) bool { return c.landing != reply.To })
		if len(safe) > 0 {
			chosen = safe
		}
	}
	b.mu.Lock()
	pick := chosen[b.rng.IntN(len(chosen))]
	b.mu.Unlock()
	return rules.MoveText(pick.move), nil
}

func classify(board *model.Board, move model.Move, color model.Color) candidate {
	piece := board.Get(move.From)
	c := candidate{
		move:    move,
		landing: move.To,
		capture: board.Taking(move.From, move.To) || move.Kind == model.MustTakeEnPassant,
		castle:  piece.Type == model.King && abs(move.To.Col-move.From.Col) == 2,
	}
	after := board.Clone()
	after.Move(move.From, move.To)
	rules := model.NewRuleBook(after)
	c.check = rules.IsChecked(color.Other())
	c.mate = c.check && !rules.HasLegalMoves(color.Other())
	return c
}

func filter(candidates []candidate, keep func(candidate) bool) []candidate {
	var kept []candidate
	for _, c := range candidates {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
