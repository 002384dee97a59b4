// Package uci drives an external chess engine (for example Stockfish) over
// the UCI protocol on its standard input and output.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/gofiber/fiber/v2/log"
)

const stopTimeout = 2 * time.Second

var (
	ErrNoLegalMoves    = errors.New("engine found no legal moves")
	ErrEngineExited    = errors.New("engine exited")
	ErrUnsupportedSize = errors.New("engine only plays on 8x8 boards")
)

type Options struct {
	// Elo limits the engine's strength when positive.
	Elo int
	// MoveTime is how long the engine thinks per move.
	MoveTime time.Duration
	Args     []string
	Env      []string
}

type Engine struct {
	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	opts  Options
}

// Start launches the engine at path and completes the UCI handshake.
func Start(ctx context.Context, path string, opts Options) (*Engine, error) {
	if opts.MoveTime <= 0 {
		opts.MoveTime = 500 * time.Millisecond
	}
	cmd := exec.Command(path, opts.Args...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}

	e := &Engine{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
		opts:  opts,
	}
	go e.read(stdout)

	if _, err := e.command(ctx, "uci", "uciok"); err != nil {
		e.Close()
		return nil, err
	}
	if opts.Elo > 0 {
		e.send("setoption name UCI_LimitStrength value true")
		e.send(fmt.Sprintf("setoption name UCI_Elo value %d", opts.Elo))
	}
	if _, err := e.command(ctx, "isready", "readyok"); err != nil {
		e.Close()
		return nil, err
	}
	log.Infof("engine %s ready", path)
	return e, nil
}

func (e *Engine) read(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		e.lines <- scanner.Text()
	}
	close(e.lines)
}

func (e *Engine) send(line string) error {
	log.Debugf("engine <- %s", line)
	_, err := io.WriteString(e.stdin, line+"\n")
	return err
}

// command sends line and waits for a reply starting with prefix.
func (e *Engine) command(ctx context.Context, line, prefix string) (string, error) {
	if err := e.send(line); err != nil {
		return "", fmt.Errorf("send %q: %w", line, err)
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case reply, ok := <-e.lines:
			if !ok {
				return "", ErrEngineExited
			}
			log.Debugf("engine -> %s", reply)
			if strings.HasPrefix(reply, prefix) {
				return reply, nil
			}
		}
	}
}

// ChooseMove asks the engine for color's move on board and returns it as
// "e2e4". Promotion suffixes are dropped since promotion is always to a
// queen.
func (e *Engine) ChooseMove(ctx context.Context, board *model.Board, color model.Color) (string, error) {
	if board.Size() != 8 {
		return "", ErrUnsupportedSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.discardPending()
	if err := e.send("position fen " + board.FullFEN(color, 1)); err != nil {
		return "", fmt.Errorf("send position: %w", err)
	}
	reply, err := e.command(ctx, fmt.Sprintf("go movetime %d", e.opts.MoveTime.Milliseconds()), "bestmove")
	if err != nil {
		if ctx.Err() != nil {
			e.stop()
		}
		return "", err
	}
	fields := strings.Fields(reply)
	if len(fields) < 2 || fields[1] == "(none)" || fields[1] == "0000" {
		return "", ErrNoLegalMoves
	}
	move := fields[1]
	if len(move) > 4 {
		move = move[:4]
	}
	return move, nil
}

// stop ends an abandoned search and reads past its bestmove, which would
// otherwise answer the next position. Callers hold e.mu.
func (e *Engine) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if _, err := e.command(ctx, "stop", "bestmove"); err != nil {
		log.Warnf("engine did not finish the abandoned search: %v", err)
	}
}

// discardPending drops output that arrived while nobody was waiting.
func (e *Engine) discardPending() {
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return
			}
			log.Debugf("engine -> %s (discarded)", line)
		default:
			return
		}
	}
}

// Close asks the engine to quit and waits for it.
func (e *Engine) Close() error {
	e.send("quit")
	e.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		e.cmd.Process.Kill()
		return <-done
	}
}
