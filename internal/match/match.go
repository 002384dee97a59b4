// Package match plays a game between two move choosers on one board.
package match

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/benbeisheim/variantchess-backend/internal/render"
)

var ErrIllegalChoice = errors.New("chooser picked an illegal move")

// Chooser picks the next move for color, as text such as "e2e4".
type Chooser interface {
	ChooseMove(ctx context.Context, board *model.Board, color model.Color) (string, error)
}

type Options struct {
	// MaxPlies stops the game undecided after this many plies; zero means
	// no limit.
	MaxPlies int
	Out      io.Writer
	Colored  bool
}

type Outcome struct {
	Result model.Result
	Winner model.Color
	Moves  []string
}

func (o Outcome) String() string {
	switch o.Result {
	case model.Checkmate:
		return "Checkmate"
	case model.Stalemate:
		return "Stalemate"
	case model.Ongoing:
		return "Undecided"
	}
	return "Draw due to " + string(o.Result)
}

// Play lets white and black take turns on board, starting with toMove, until
// the game is decided or ctx ends.
func Play(ctx context.Context, board *model.Board, toMove model.Color, white, black Chooser, opts Options) (Outcome, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprint(out, render.Draw(board, nil, opts.Colored))

	outcome := Outcome{}
	repetitions := model.Repetitions{}
	repetitions.Record(board)
	color := toMove
	for ply := 0; opts.MaxPlies == 0 || ply < opts.MaxPlies; ply++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		if result := model.Evaluate(board, color, repetitions[board.Notation()]); result != model.Ongoing {
			outcome.Result = result
			if result == model.Checkmate {
				outcome.Winner = color.Other()
			}
			return outcome, nil
		}

		chooser := white
		if color == model.Black {
			chooser = black
		}
		text, err := chooser.ChooseMove(ctx, board, color)
		if err != nil {
			return outcome, fmt.Errorf("%s to move: %w", color, err)
		}
		rules := model.NewRuleBook(board)
		move, ok := rules.Find(color, text)
		if !ok {
			return outcome, fmt.Errorf("%w: %s plays %q", ErrIllegalChoice, color, text)
		}
		text = rules.MoveText(move)
		outcome.Moves = append(outcome.Moves, text)

		turn := ply/2 + 1
		if color == model.White {
			fmt.Fprintf(out, "%d.%s\n", turn, text)
		} else {
			fmt.Fprintf(out, "%d...%s\n", turn, text)
		}
		board.Move(move.From, move.To)
		fmt.Fprint(out, render.Draw(board, &model.SimpleMove{From: move.From, To: move.To}, opts.Colored))

		repetitions.Record(board)
		color = color.Other()
	}
	return outcome, nil
}
