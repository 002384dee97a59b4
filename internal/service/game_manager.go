package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbeisheim/variantchess-backend/internal/match"
	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/benbeisheim/variantchess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameExists        = errors.New("game already exists")
	ErrUnknownOpponent   = errors.New("unknown opponent")
	ErrEngineUnavailable = errors.New("no engine configured")
)

// Opponent says who sits on the other side of a newly created game.
type Opponent string

const (
	OpponentHuman  Opponent = "human"
	OpponentBrain  Opponent = "brain"
	OpponentEngine Opponent = "engine"
)

type Options struct {
	TimeControl model.TimeControl
	// Brain and Engine play the computer side of games; Engine may be nil.
	Brain  match.Chooser
	Engine match.Chooser
	// ThinkTimeout bounds a single computer move.
	ThinkTimeout  time.Duration
	MatchInterval time.Duration
	// SweepInterval is how often clocks are checked and finished games
	// older than FinishedTTL are dropped.
	SweepInterval time.Duration
	FinishedTTL   time.Duration
}

type computer struct {
	id      string
	chooser match.Chooser
}

type GameManager struct {
	games            map[string]*model.Game
	computers        map[string]computer // gameID -> computer side
	queue            *model.Queue
	matchingChannels map[string]chan string
	opts             Options
	thinking         sync.WaitGroup
	mu               sync.RWMutex
}

func NewGameManager(ctx context.Context, opts Options) *GameManager {
	if opts.ThinkTimeout <= 0 {
		opts.ThinkTimeout = 10 * time.Second
	}
	if opts.MatchInterval <= 0 {
		opts.MatchInterval = time.Second
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Second
	}
	if opts.FinishedTTL <= 0 {
		opts.FinishedTTL = 10 * time.Minute
	}
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		computers:        make(map[string]computer),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		opts:             opts,
	}

	go gm.processMatchmaking(ctx)
	go gm.processSweeps(ctx)

	return gm
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	log.Debugf("registering matchmaking channel for player %s", playerID)

	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		// Remove from map first to prevent any new writes
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// A newer connection may already have replaced ch.
	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		log.Debugf("unregistering matchmaking channel for player %s", playerID)
		delete(gm.matchingChannels, playerID)
	}
	gm.queue.Remove(playerID)
}

func (gm *GameManager) processMatchmaking(ctx context.Context) {
	ticker := time.NewTicker(gm.opts.MatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for gm.matchNextPair() {
			}
		}
	}
}

func (gm *GameManager) processSweeps(ctx context.Context) {
	ticker := time.NewTicker(gm.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			gm.sweep(now)
		}
	}
}

// sweep ends games whose side to move has run out of time and forgets
// games that finished more than FinishedTTL before now.
func (gm *GameManager) sweep(now time.Time) {
	gm.mu.RLock()
	games := make([]*model.Game, 0, len(gm.games))
	for _, game := range gm.games {
		games = append(games, game)
	}
	gm.mu.RUnlock()

	var expired []string
	for _, game := range games {
		if game.CheckFlag() {
			log.Infof("game %s lost on time", game.ID)
		}
		if at, over := game.FinishedAt(); over && now.Sub(at) >= gm.opts.FinishedTTL {
			expired = append(expired, game.ID)
		}
	}
	if len(expired) == 0 {
		return
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	for _, gameID := range expired {
		delete(gm.games, gameID)
		delete(gm.computers, gameID)
	}
	log.Debugf("dropped %d finished games", len(expired))
}

// matchNextPair starts a game for the next two queued players who want the
// same board size and tells both of them about it.
func (gm *GameManager) matchNextPair() bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		return false
	}

	gameID := uuid.New().String()
	game, err := model.NewGame(gameID, player1.BoardSize, gm.opts.TimeControl)
	if err != nil {
		log.Errorf("matchmaking: %v", err)
		return true
	}
	p1Color, err := game.AddPlayer(player1.ID, false)
	if err != nil {
		log.Errorf("matchmaking: adding player %s: %v", player1.ID, err)
		return true
	}
	p2Color, err := game.AddPlayer(player2.ID, false)
	if err != nil {
		log.Errorf("matchmaking: adding player %s: %v", player2.ID, err)
		return true
	}
	gm.games[gameID] = game
	log.Infof("matched %s and %s in game %s (%dx%d)", player1.ID, player2.ID, gameID, player1.BoardSize, player1.BoardSize)

	sendEventAndCleanup := func(playerID string, payload ws.MatchFoundPayload) bool {
		ch, ok := gm.matchingChannels[playerID]
		if !ok {
			return false
		}
		msg, err := ws.NewMessage(ws.MessageTypeMatchFound, payload)
		if err != nil {
			log.Errorf("matchmaking: %v", err)
			return false
		}
		select {
		case ch <- mustJSON(msg):
			delete(gm.matchingChannels, playerID)
			close(ch)
			return true
		default:
			return false
		}
	}

	if !sendEventAndCleanup(player1.ID, ws.MatchFoundPayload{GameID: gameID, Color: string(p1Color), Size: player1.BoardSize}) {
		log.Warnf("could not notify player %s of game %s", player1.ID, gameID)
	}
	if !sendEventAndCleanup(player2.ID, ws.MatchFoundPayload{GameID: gameID, Color: string(p2Color), Size: player2.BoardSize}) {
		log.Warnf("could not notify player %s of game %s", player2.ID, gameID)
	}
	return true
}

func mustJSON(v any) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

// CreateGame registers a new game of the given size. With a computer
// opponent the computer takes the seat that is not filled by the creator.
func (gm *GameManager) CreateGame(gameID string, size int, opponent Opponent) error {
	var chooser match.Chooser
	switch opponent {
	case OpponentHuman, "":
	case OpponentBrain:
		chooser = gm.opts.Brain
	case OpponentEngine:
		if gm.opts.Engine == nil {
			return ErrEngineUnavailable
		}
		if size != 8 {
			return fmt.Errorf("%w: engine games are 8x8 only", model.ErrUnsupportedSize)
		}
		chooser = gm.opts.Engine
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOpponent, opponent)
	}

	game, err := model.NewGame(gameID, size, gm.opts.TimeControl)
	if err != nil {
		return err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}
	gm.games[gameID] = game
	if chooser != nil {
		gm.computers[gameID] = computer{id: string(opponent) + "-" + gameID, chooser: chooser}
	}
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	log.Debugf("adding player %s to game %s", playerID, gameID)
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.NoColor, err
	}

	color, err := game.AddPlayer(playerID, false)
	if err != nil {
		return model.NoColor, err
	}
	gm.mu.RLock()
	cpu, hasComputer := gm.computers[gameID]
	gm.mu.RUnlock()
	if hasComputer {
		if _, err := game.AddPlayer(cpu.id, true); err != nil && !errors.Is(err, model.ErrGameFull) {
			return color, err
		}
		gm.replyAsComputer(game, cpu)
	}
	return color, nil
}

func (gm *GameManager) JoinMatchmaking(playerID string, size int) error {
	if _, err := model.NewBoard(size); err != nil {
		return err
	}
	return gm.queue.AddPlayer(model.Player{ID: playerID, BoardSize: size})
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

// LegalMoves lists the current legal moves of a game, narrowed to those
// starting on from when it is not empty.
func (gm *GameManager) LegalMoves(gameID string, from string) ([]string, error) {
	state, err := gm.GetGameState(gameID)
	if err != nil {
		return nil, err
	}
	if from == "" {
		return state.LegalMoves, nil
	}
	moves := []string{}
	for _, move := range state.LegalMoves {
		if strings.HasPrefix(move, from) {
			moves = append(moves, move)
		}
	}
	return moves, nil
}

func (gm *GameManager) MakeMove(gameID string, playerID string, move string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := game.MakeMove(playerID, move); err != nil {
		return err
	}

	gm.mu.RLock()
	cpu, hasComputer := gm.computers[gameID]
	gm.mu.RUnlock()
	if hasComputer {
		gm.replyAsComputer(game, cpu)
	}
	return nil
}

func (gm *GameManager) Resign(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Resign(playerID)
}

func (gm *GameManager) OfferDraw(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.OfferDraw(playerID)
}

// replyAsComputer lets the computer move on its own goroutine when it is
// the computer's turn.
func (gm *GameManager) replyAsComputer(game *model.Game, cpu computer) {
	gm.thinking.Add(1)
	go func() {
		defer gm.thinking.Done()

		board, toMove, over := game.Position()
		if over || toMove != game.ColorOf(cpu.id) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), gm.opts.ThinkTimeout)
		defer cancel()
		text, err := cpu.chooser.ChooseMove(ctx, board, toMove)
		if err != nil {
			log.Errorf("game %s: computer could not move: %v", game.ID, err)
			return
		}
		if err := game.MakeMove(cpu.id, text); err != nil {
			log.Errorf("game %s: computer move %s rejected: %v", game.ID, text, err)
		}
	}()
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID)
}
