package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbeisheim/variantchess-backend/internal/brain"
	"github.com/benbeisheim/variantchess-backend/internal/middleware"
	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/benbeisheim/variantchess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	gameService := service.NewGameService(service.NewGameManager(ctx, service.Options{
		Brain:         brain.New(1),
		MatchInterval: time.Hour,
	}))
	gc := NewGameController(gameService, 8)

	app := fiber.New()
	app.Post("/api/player", gc.CreatePlayer)
	app.Post("/api/analyze", gc.Analyze)
	api := app.Group("/api", middleware.EnsurePlayerID())
	games := api.Group("/game")
	games.Post("/matchmaking/join", gc.JoinMatchmaking)
	games.Post("/create", gc.CreateGame)
	games.Post("/join/:gameId", gc.JoinGame)
	games.Get("/:gameId", gc.GetGameState)
	games.Get("/:gameId/moves", gc.GetLegalMoves)
	games.Post("/:gameId/move", gc.MakeMove)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, player, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if player != "" {
		req.Header.Set("X-Player-ID", player)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	decoded := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("%s %s: decoding response: %v", method, path, err)
	}
	return resp.StatusCode, decoded
}

func TestCreatePlayer(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, http.MethodPost, "/api/player", "", "")
	if status != fiber.StatusOK || body["player_id"] == "" {
		t.Errorf("status %d body %v", status, body)
	}
}

func TestPlayerIDRequired(t *testing.T) {
	app := newTestApp(t)
	if status, _ := do(t, app, http.MethodPost, "/api/game/create", "", ""); status != fiber.StatusUnauthorized {
		t.Errorf("status %d, want 401", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/game/create?playerId=alice", "", ""); status != fiber.StatusOK {
		t.Errorf("query player ID: status %d, want 200", status)
	}
}

func TestGameFlow(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, http.MethodPost, "/api/game/create", "alice", `{"size": 6}`)
	if status != fiber.StatusOK {
		t.Fatalf("create: %d %v", status, body)
	}
	gameID := body["game_id"].(string)

	if status, body := do(t, app, http.MethodPost, "/api/game/join/"+gameID, "alice", ""); status != fiber.StatusOK || body["color"] != "white" {
		t.Fatalf("join alice: %d %v", status, body)
	}
	if status, body := do(t, app, http.MethodPost, "/api/game/join/"+gameID, "bob", ""); status != fiber.StatusOK || body["color"] != "black" {
		t.Fatalf("join bob: %d %v", status, body)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/game/join/"+gameID, "carol", ""); status != fiber.StatusConflict {
		t.Errorf("third player: %d, want 409", status)
	}

	status, body = do(t, app, http.MethodGet, "/api/game/"+gameID+"/moves?from=b1", "alice", "")
	if status != fiber.StatusOK || len(body["moves"].([]any)) != 2 {
		t.Errorf("moves from b1: %d %v", status, body)
	}

	status, body = do(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "alice", `{"move": "b1c3"}`)
	if status != fiber.StatusOK || body["toMove"] != string(model.Black) {
		t.Errorf("move: %d %v", status, body)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "alice", `{"move": "a2a3"}`); status != fiber.StatusConflict {
		t.Errorf("out of turn: %d, want 409", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "bob", `{"move": "a5a3"}`); status != fiber.StatusBadRequest {
		t.Errorf("illegal move: %d, want 400", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "bob", `{}`); status != fiber.StatusBadRequest {
		t.Errorf("missing move: %d, want 400", status)
	}

	status, body = do(t, app, http.MethodGet, "/api/game/"+gameID, "bob", "")
	if status != fiber.StatusOK || body["size"] != float64(6) {
		t.Errorf("state: %d %v", status, body)
	}
}

func TestGameNotFound(t *testing.T) {
	app := newTestApp(t)
	if status, _ := do(t, app, http.MethodGet, "/api/game/nope", "alice", ""); status != fiber.StatusNotFound {
		t.Errorf("status %d, want 404", status)
	}
}

func TestCreateGameValidation(t *testing.T) {
	app := newTestApp(t)
	tests := []struct {
		body string
		want int
	}{
		{`{"size": 5}`, fiber.StatusBadRequest},
		{`{"opponent": "wizard"}`, fiber.StatusBadRequest},
		{`{"opponent": "engine"}`, fiber.StatusServiceUnavailable},
		{`not json`, fiber.StatusBadRequest},
		{`{"size": 4, "opponent": "brain"}`, fiber.StatusOK},
	}
	for _, tt := range tests {
		if status, body := do(t, app, http.MethodPost, "/api/game/create", "alice", tt.body); status != tt.want {
			t.Errorf("%s: status %d, want %d (%v)", tt.body, status, tt.want, body)
		}
	}
}

func TestJoinMatchmaking(t *testing.T) {
	app := newTestApp(t)
	if status, body := do(t, app, http.MethodPost, "/api/game/matchmaking/join", "alice", `{"size": 4}`); status != fiber.StatusOK || body["size"] != float64(4) {
		t.Errorf("join: %d %v", status, body)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/game/matchmaking/join", "alice", `{"size": 4}`); status != fiber.StatusConflict {
		t.Errorf("second join: %d, want 409", status)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, http.MethodPost, "/api/analyze", "", `{"fen": "rnqknr/pppppp/6/6/PPPPPP/RNQKNR w"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status %d %v", status, body)
	}
	if body["size"] != float64(6) || len(body["legalMoves"].([]any)) != 16 {
		t.Errorf("analysis = %v", body)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/analyze", "", `{"fen": "   "}`); status != fiber.StatusBadRequest {
		t.Errorf("blank fen: %d, want 400", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/analyze", "", `{"fen": "8/8/8 w"}`); status != fiber.StatusBadRequest {
		t.Errorf("3 ranks: %d, want 400", status)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(io.EOF); got != fiber.StatusInternalServerError {
		t.Errorf("unknown error mapped to %d", got)
	}
}
