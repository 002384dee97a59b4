package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/variantchess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

var (
	ErrGameFull     = errors.New("game is full")
	ErrGameOver     = errors.New("game is over")
	ErrNotInGame    = errors.New("player not in game")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrIllegalMove  = errors.New("invalid move, not legal")
	ErrUnauthorized = errors.New("not authorized to join this game")
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
}

// Game is one running game: the board, whose turn it is, and who is
// watching.
type Game struct {
	ID          string
	mu          sync.Mutex
	state       GameState
	board       *Board
	repetitions Repetitions
	connections *GameConnections
	whiteClock  *Clock
	blackClock  *Clock
	finishedAt  time.Time
	now         func() time.Time
}

type GameState struct {
	Sound          string         `json:"sound"`
	Size           int            `json:"size"`
	Board          [][]*Piece     `json:"board"`
	FEN            string         `json:"fen"`
	ToMove         Color          `json:"toMove"`
	MoveHistory    []MovePair     `json:"moveHistory"`
	CapturedPieces CapturedPieces `json:"capturedPieces"`
	IsCheck        bool           `json:"isCheck"`
	LegalMoves     []string       `json:"legalMoves"`
	Resolve        Result         `json:"resolve"`
	Winner         Color          `json:"winner"`
	DrawOffer      Color          `json:"drawOffer"`
	Players        struct {
		White ClientPlayer `json:"white"`
		Black ClientPlayer `json:"black"`
	} `json:"players"`
	LastMove *SimpleMove `json:"lastMove"`
}

func NewGame(id string, size int, timeControl TimeControl) (*Game, error) {
	board, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	g := &Game{
		ID:          id,
		board:       board,
		repetitions: Repetitions{},
		connections: NewGameConnections(),
		whiteClock:  NewClock(timeControl),
		blackClock:  NewClock(timeControl),
		now:         time.Now,
	}
	g.repetitions.Record(board)
	g.state = newGameState(size, timeControl)
	g.refreshState()
	return g, nil
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

func newGameState(size int, timeControl TimeControl) GameState {
	state := GameState{
		Size:           size,
		ToMove:         White,
		MoveHistory:    make([]MovePair, 0),
		CapturedPieces: newCapturedPieces(),
		LegalMoves:     make([]string, 0),
	}
	state.Players.White = ClientPlayer{Color: White, TimeLeft: tenths(timeControl.Initial)}
	state.Players.Black = ClientPlayer{Color: Black, TimeLeft: tenths(timeControl.Initial)}
	return state
}

func (g *Game) AddPlayer(playerID string, computer bool) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	log.Debugf("adding player %s to game %s", playerID, g.ID)

	if g.isPlayerInGame(playerID) {
		return g.colorOf(playerID), nil
	}
	if g.state.Players.White.ID == "" {
		g.state.Players.White.ID = playerID
		g.state.Players.White.Computer = computer
		return White, nil
	}
	if g.state.Players.Black.ID == "" {
		g.state.Players.Black.ID = playerID
		g.state.Players.Black.Computer = computer
		return Black, nil
	}
	return NoColor, ErrGameFull
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkFlag()
	return g.snapshot()
}

// CheckFlag ends the game on time when the side to move has run out, even
// if that side never tries to move again.
func (g *Game) CheckFlag() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.checkFlag()
}

func (g *Game) checkFlag() bool {
	if g.state.Resolve != Ongoing || !g.clock(g.state.ToMove).Expired() {
		return false
	}
	g.finish(Timeout, g.state.ToMove.Other())
	g.broadcast()
	return true
}

// FinishedAt reports when the game ended, and whether it has.
func (g *Game) FinishedAt() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.finishedAt, g.state.Resolve != Ongoing
}

// snapshot copies the state so later moves do not show through.
func (g *Game) snapshot() GameState {
	state := g.state
	state.MoveHistory = append([]MovePair(nil), g.state.MoveHistory...)
	state.LegalMoves = append([]string(nil), g.state.LegalMoves...)
	return state
}

// Position returns a copy of the board, the side to move and whether the
// game has ended.
func (g *Game) Position() (*Board, Color, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkFlag()
	return g.board.Clone(), g.state.ToMove, g.state.Resolve != Ongoing
}

// fullMoveNumber is the FEN full-move counter for the current position.
func (g *Game) fullMoveNumber() int {
	if g.state.ToMove == White {
		return len(g.state.MoveHistory) + 1
	}
	return len(g.state.MoveHistory)
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.isPlayerInGame(playerID)
}

// ColorOf is the colour playerID plays, or NoColor for spectators.
func (g *Game) ColorOf(playerID string) Color {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.colorOf(playerID)
}

func (g *Game) isPlayerInGame(playerID string) bool {
	return g.colorOf(playerID) != NoColor
}

func (g *Game) colorOf(playerID string) Color {
	if playerID == "" {
		return NoColor
	}
	switch playerID {
	case g.state.Players.White.ID:
		return White
	case g.state.Players.Black.ID:
		return Black
	}
	return NoColor
}

func (g *Game) canSpectate() bool {
	return g.state.Players.White.ID == "" || g.state.Players.Black.ID == ""
}

// MakeMove plays text ("e2e4") for playerID if it is that player's turn and
// the move is legal.
func (g *Game) MakeMove(playerID string, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	log.Debugf("game %s: %s plays %s", g.ID, playerID, text)

	if g.checkFlag() || g.state.Resolve != Ongoing {
		return ErrGameOver
	}
	color := g.colorOf(playerID)
	if color == NoColor {
		return ErrNotInGame
	}
	if color != g.state.ToMove {
		return ErrNotYourTurn
	}
	move, ok := NewRuleBook(g.board).Find(color, text)
	if !ok {
		return fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}

	g.clock(color).Stop()
	if g.clock(color).Expired() {
		g.finish(Timeout, color.Other())
		g.broadcast()
		return ErrGameOver
	}
	g.executeMove(move)
	if g.state.Resolve == Ongoing {
		g.clock(g.state.ToMove).Start()
	}
	g.broadcast()
	return nil
}

func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checkFlag() || g.state.Resolve != Ongoing {
		return ErrGameOver
	}
	color := g.colorOf(playerID)
	if color == NoColor {
		return ErrNotInGame
	}
	g.finish(Resignation, color.Other())
	g.broadcast()
	return nil
}

// OfferDraw records a draw offer; a standing offer from the opponent is
// accepted instead.
func (g *Game) OfferDraw(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checkFlag() || g.state.Resolve != Ongoing {
		return ErrGameOver
	}
	color := g.colorOf(playerID)
	if color == NoColor {
		return ErrNotInGame
	}
	if g.state.DrawOffer == color.Other() {
		g.finish(Agreement, NoColor)
	} else {
		g.state.DrawOffer = color
	}
	g.broadcast()
	return nil
}

func (g *Game) clock(color Color) *Clock {
	if color == White {
		return g.whiteClock
	}
	return g.blackClock
}

func (g *Game) finish(result Result, winner Color) {
	g.state.Resolve = result
	g.state.Winner = winner
	g.state.LegalMoves = make([]string, 0)
	g.finishedAt = g.now()
	g.whiteClock.Stop()
	g.blackClock.Stop()
	g.updateClocks()
	log.Infof("game %s finished: %s (winner %q)", g.ID, result, winner)
}

func (g *Game) executeMove(move Move) {
	mover := g.state.ToMove
	ply := g.makePly(move)

	g.board.Move(move.From, move.To)

	switch {
	case ply.CastleRookMove != nil:
		g.state.Sound = "castle"
	case ply.CapturedPiece != nil:
		g.state.Sound = "capture"
	default:
		g.state.Sound = "move"
	}

	g.state.ToMove = mover.Other()
	g.state.DrawOffer = NoColor
	repetitions := g.repetitions.Record(g.board)
	rules := NewRuleBook(g.board)
	g.state.IsCheck = rules.IsChecked(g.state.ToMove)
	if result := Evaluate(g.board, g.state.ToMove, repetitions); result != Ongoing {
		winner := NoColor
		if result.Decisive() {
			winner = mover
		}
		g.finish(result, winner)
	}
	if g.state.IsCheck {
		g.state.Sound = "check"
		if g.state.Resolve == Checkmate {
			ply.Notation += "#"
		} else {
			ply.Notation += "+"
		}
	}

	if mover == White {
		g.state.MoveHistory = append(g.state.MoveHistory, MovePair{WhitePly: &ply})
	} else if n := len(g.state.MoveHistory); n > 0 && g.state.MoveHistory[n-1].BlackPly == nil {
		g.state.MoveHistory[n-1].BlackPly = &ply
	} else {
		g.state.MoveHistory = append(g.state.MoveHistory, MovePair{BlackPly: &ply})
	}
	g.state.LastMove = &SimpleMove{From: move.From, To: move.To}
	g.refreshState()
}

// refreshState copies the board-derived fields into the state.
func (g *Game) refreshState() {
	g.state.Board = g.board.Squares()
	g.state.FEN = g.board.FullFEN(g.state.ToMove, g.fullMoveNumber())
	g.state.CapturedPieces = g.board.Captured()
	if g.state.Resolve == Ongoing {
		g.state.LegalMoves = NewRuleBook(g.board).Legal(g.state.ToMove)
	}
	g.updateClocks()
}

func (g *Game) updateClocks() {
	g.state.Players.White.TimeLeft = tenths(g.whiteClock.GetTimeLeft())
	g.state.Players.Black.TimeLeft = tenths(g.blackClock.GetTimeLeft())
}

func tenths(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d.Milliseconds() / 100)
}

func (g *Game) makePly(move Move) Ply {
	piece := g.board.Get(move.From)
	ply := Ply{
		Piece:         *piece,
		From:          move.From,
		To:            move.To,
		Text:          NewRuleBook(g.board).MoveText(move),
		CapturedPiece: g.board.Get(move.To),
		Notation:      g.getNotation(move),
	}
	if move.Kind == MustTakeEnPassant {
		ply.CapturedPiece = g.board.Get(NewCoord(move.From.Size, move.From.Row, move.To.Col))
	}
	if piece.Type == Pawn && (move.To.Row == 0 || move.To.Row == g.board.size-1) {
		ply.Promotion = Queen
	}
	if piece.Type == King && abs(move.To.Col-move.From.Col) == 2 {
		rookCol, rookTo := 0, move.From.Col-1
		ply.Notation = "O-O-O"
		if move.To.Col > move.From.Col {
			rookCol, rookTo = g.board.size-1, move.From.Col+1
			ply.Notation = "O-O"
		}
		ply.CastleRookMove = &CastleRookMove{
			From: NewCoord(g.board.size, move.From.Row, rookCol),
			To:   NewCoord(g.board.size, move.From.Row, rookTo),
		}
	}
	return ply
}

func (g *Game) getNotation(move Move) string {
	piece := g.board.Get(move.From)
	pieceNotationCapture := ""
	if !g.board.Empty(move.To) || move.Kind == MustTakeEnPassant {
		pieceNotationCapture = "x"
	}
	pawnFileSpecifier := ""
	if piece.Type == Pawn && move.From.Col != move.To.Col {
		pawnFileSpecifier = move.From.getFileNotation()
	}
	promotion := ""
	if piece.Type == Pawn && (move.To.Row == 0 || move.To.Row == g.board.size-1) {
		promotion = "=Q"
	}
	return fmt.Sprintf("%s%s%s%s%s", piece.Type.getPieceNotation(), pawnFileSpecifier, pieceNotationCapture, move.To.Position(), promotion)
}

func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	connID := fmt.Sprintf("%p", conn)
	log.Debugf("registering connection %s for player %s in game %s", connID, playerID, g.ID)

	g.mu.Lock()
	isAuthorized := g.isPlayerInGame(playerID) || g.canSpectate()
	g.mu.Unlock()

	if !isAuthorized {
		return ErrUnauthorized
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// Keep the existing connection and turn the newcomer away.
		g.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()

	g.mu.Lock()
	g.broadcast()
	g.mu.Unlock()
	return nil
}

func (g *Game) UnregisterConnection(playerID string) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if _, exists := g.connections.connections[playerID]; exists {
		log.Debugf("unregistering connection for player %s in game %s", playerID, g.ID)
		delete(g.connections.connections, playerID)
	}
}

// broadcast sends a snapshot of the state to every connection. Callers hold
// g.mu; the sending happens on its own goroutine.
func (g *Game) broadcast() {
	go g.broadcastState(g.snapshot())
}

func (g *Game) broadcastState(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorf("failed to marshal state of game %s: %v", g.ID, err)
		return
	}

	g.connections.mu.RLock()
	activeConnections := make(map[string]*websocket.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range activeConnections {
		if err := conn.WriteJSON(ws.Message{
			Type:    ws.MessageTypeGameState,
			Payload: json.RawMessage(payload),
		}); err != nil {
			log.Warnf("failed to send state to player %s: %v", playerID, err)
			g.connections.mu.Lock()
			delete(g.connections.connections, playerID)
			g.connections.mu.Unlock()
		}
	}
}
