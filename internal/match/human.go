package match

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/benbeisheim/variantchess-backend/internal/model"
)

var ErrInputClosed = errors.New("input closed")

// Human reads moves typed on in, asking again until a legal one arrives.
type Human struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewHuman(in io.Reader, out io.Writer) *Human {
	return &Human{in: bufio.NewScanner(in), out: out}
}

func (h *Human) ChooseMove(ctx context.Context, board *model.Board, color model.Color) (string, error) {
	rules := model.NewRuleBook(board)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(h.out, "%s to move: ", color)
		if !h.in.Scan() {
			if err := h.in.Err(); err != nil {
				return "", err
			}
			return "", ErrInputClosed
		}
		text := strings.TrimSpace(h.in.Text())
		if text == "" {
			continue
		}
		if move, ok := rules.Find(color, text); ok {
			return rules.MoveText(move), nil
		}
		fmt.Fprintf(h.out, "Illegal move %q. Legal moves: %s\n", text, strings.Join(rules.Legal(color), " "))
	}
}
