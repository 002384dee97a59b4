package service

import (
	"fmt"

	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

// Analysis describes a position given as FEN.
type Analysis struct {
	Size       int          `json:"size"`
	FEN        string       `json:"fen"`
	ToMove     model.Color  `json:"toMove"`
	LegalMoves []string     `json:"legalMoves"`
	IsCheck    bool         `json:"isCheck"`
	Result     model.Result `json:"result"`
	Diagram    string       `json:"diagram"`
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

func (gs *GameService) CreateGame(size int, opponent Opponent) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID, size, opponent); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	log.Infof("created %dx%d game %s against %s", size, size, gameID, opponent)

	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string, size int) error {
	return gs.gameManager.JoinMatchmaking(playerID, size)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) LegalMoves(gameID string, from string) ([]string, error) {
	return gs.gameManager.LegalMoves(gameID, from)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.WSMove) error {
	return gs.gameManager.MakeMove(gameID, playerID, move.Move)
}

func (gs *GameService) Resign(gameID string, playerID string) error {
	return gs.gameManager.Resign(gameID, playerID)
}

func (gs *GameService) OfferDraw(gameID string, playerID string) error {
	return gs.gameManager.OfferDraw(gameID, playerID)
}

// Analyze sets up fen on a board of size and reports what the side to move
// can do there. No game is created.
func (gs *GameService) Analyze(fen string, size int) (Analysis, error) {
	board, err := model.NewBoard(size)
	if err != nil {
		return Analysis{}, err
	}
	toMove, err := board.SetupFEN(fen)
	if err != nil {
		return Analysis{}, err
	}
	rules := model.NewRuleBook(board)
	return Analysis{
		Size:       size,
		FEN:        board.FullFEN(toMove, 1),
		ToMove:     toMove,
		LegalMoves: rules.Legal(toMove),
		IsCheck:    rules.IsChecked(toMove),
		Result:     model.Evaluate(board, toMove, 1),
		Diagram:    board.Diagram(),
	}, nil
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string) {
	gs.gameManager.UnregisterConnection(gameID, playerID)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
