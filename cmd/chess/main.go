// Command chess plays a game in the terminal between any two of a human,
// the built-in brain and an external UCI engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/benbeisheim/variantchess-backend/internal/brain"
	"github.com/benbeisheim/variantchess-backend/internal/match"
	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/benbeisheim/variantchess-backend/internal/render"
	"github.com/benbeisheim/variantchess-backend/internal/uci"
	"github.com/gofiber/fiber/v2/log"
)

type flags struct {
	size       int
	white      string
	black      string
	enginePath string
	elo        int
	moveTime   time.Duration
	setup      string
	fen        string
	toMove     string
	maxPlies   int
	seed       uint64
	verbose    bool
}

func parseFlags() flags {
	var f flags
	flag.IntVar(&f.size, "size", 8, "board size (4, 6 or 8)")
	flag.StringVar(&f.white, "white", "human", "white player: human, brain or engine")
	flag.StringVar(&f.black, "black", "brain", "black player: human, brain or engine")
	flag.StringVar(&f.enginePath, "engine", "stockfish", "path to a UCI engine")
	flag.IntVar(&f.elo, "elo", 1350, "engine strength, 0 for full strength")
	flag.DurationVar(&f.moveTime, "movetime", 500*time.Millisecond, "engine thinking time per move")
	flag.StringVar(&f.setup, "setup", "", "file with a board diagram to start from")
	flag.StringVar(&f.fen, "fen", "", "FEN position to start from")
	flag.StringVar(&f.toMove, "to-move", "white", "side to move with -setup")
	flag.IntVar(&f.maxPlies, "max-plies", 0, "stop after this many plies, 0 for no limit")
	flag.Uint64Var(&f.seed, "seed", 0, "brain random seed, 0 for a random one")
	flag.BoolVar(&f.verbose, "v", false, "log engine traffic")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()
	if f.verbose {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelWarn)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, f); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, match.ErrInputClosed) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	board, toMove, err := startingPosition(f)
	if err != nil {
		return err
	}
	out, colored := render.Stdout()

	// One of each, so two humans share a stdin reader.
	var (
		human  *match.Human
		engine *uci.Engine
	)
	chooser := func(kind string) (match.Chooser, error) {
		switch kind {
		case "human":
			if human == nil {
				human = match.NewHuman(os.Stdin, out)
			}
			return human, nil
		case "brain":
			if f.seed != 0 {
				return brain.New(f.seed), nil
			}
			return brain.NewRandom(), nil
		case "engine":
			if engine == nil {
				engine, err = uci.Start(ctx, f.enginePath, uci.Options{Elo: f.elo, MoveTime: f.moveTime})
				if err != nil {
					return nil, err
				}
			}
			return engine, nil
		}
		return nil, fmt.Errorf("unknown player %q", kind)
	}
	white, err := chooser(f.white)
	if err != nil {
		return err
	}
	black, err := chooser(f.black)
	if err != nil {
		return err
	}
	if engine != nil {
		defer engine.Close()
	}

	outcome, err := match.Play(ctx, board, toMove, white, black, match.Options{
		MaxPlies: f.maxPlies,
		Out:      out,
		Colored:  colored,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, outcome)
	return nil
}

func startingPosition(f flags) (*model.Board, model.Color, error) {
	board, err := model.NewBoard(f.size)
	if err != nil {
		return nil, model.NoColor, err
	}
	switch {
	case f.fen != "":
		toMove, err := board.SetupFEN(f.fen)
		return board, toMove, err
	case f.setup != "":
		contents, err := os.ReadFile(f.setup)
		if err != nil {
			return nil, model.NoColor, err
		}
		toMove, ok := model.ParseColor(f.toMove)
		if !ok {
			return nil, model.NoColor, fmt.Errorf("unknown colour %q", f.toMove)
		}
		board.Setup(string(contents))
		return board, toMove, nil
	}
	return board, model.White, nil
}
