package controller

import (
	"errors"
	"strings"

	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/benbeisheim/variantchess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

type GameController struct {
	gameService *service.GameService
	defaultSize int
}

func NewGameController(gameService *service.GameService, defaultSize int) *GameController {
	return &GameController{gameService: gameService, defaultSize: defaultSize}
}

type createGameRequest struct {
	Size     int              `json:"size"`
	Opponent service.Opponent `json:"opponent"`
}

type matchmakingRequest struct {
	Size int `json:"size"`
}

type analyzeRequest struct {
	FEN  string `json:"fen"`
	Size int    `json:"size"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrNotInGame):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrGameFull), errors.Is(err, model.ErrGameOver),
		errors.Is(err, model.ErrNotYourTurn), errors.Is(err, model.ErrAlreadyQueued),
		errors.Is(err, service.ErrGameExists):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrIllegalMove), errors.Is(err, model.ErrUnsupportedSize),
		errors.Is(err, model.ErrBadFEN), errors.Is(err, model.ErrBadNotation),
		errors.Is(err, service.ErrUnknownOpponent):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrEngineUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

// bodyInto parses an optional JSON body; an empty body leaves v untouched.
func bodyInto(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(v)
}

// CreatePlayer hands out a fresh player ID for clients to send as
// X-Player-ID.
func (gc *GameController) CreatePlayer(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"player_id": uuid.New().String(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	req := createGameRequest{Size: gc.defaultSize, Opponent: service.OpponentHuman}
	if err := bodyInto(c, &req); err != nil {
		return badRequest(c, "invalid request body")
	}

	gameID, err := gc.gameService.CreateGame(req.Size, req.Opponent)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
		"size":    req.Size,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(gameState)
}

// GetLegalMoves lists the legal moves of the side to move; ?from=e2 narrows
// them to one square.
func (gc *GameController) GetLegalMoves(c *fiber.Ctx) error {
	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), c.Query("from"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"moves": moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)

	var move model.WSMove
	if err := c.BodyParser(&move); err != nil || move.Move == "" {
		return badRequest(c, "move is required")
	}
	if err := gc.gameService.HandleMove(gameID, playerID, move); err != nil {
		return fail(c, err)
	}
	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)
	req := matchmakingRequest{Size: gc.defaultSize}
	if err := bodyInto(c, &req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := gc.gameService.JoinMatchmaking(playerID, req.Size); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
		"size":   req.Size,
	})
}

func (gc *GameController) Analyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.FEN) == "" {
		return badRequest(c, "fen is required")
	}
	if req.Size == 0 {
		// The placement field has one rank per row.
		req.Size = strings.Count(strings.Fields(req.FEN)[0], "/") + 1
	}
	analysis, err := gc.gameService.Analyze(req.FEN, req.Size)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(analysis)
}
