// Package rest exposes the game service over HTTP with fiber.
package rest

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/auth"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/internal/services/game"
)

// Config holds the configuration for the REST handler
type Config struct {
	GameService game.Service
	Tokens      *auth.Issuer

	// CORSOrigins lists allowed origins; empty allows any
	CORSOrigins []string

	Logger *zap.SugaredLogger
}

// Handler serves the REST API
type Handler struct {
	gameService game.Service
	tokens      *auth.Issuer
	log         *zap.SugaredLogger
	app         *fiber.App
}

// New creates the handler and registers its routes
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.GameService == nil {
		return nil, errors.New("game service cannot be nil")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token issuer cannot be nil")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	h := &Handler{
		gameService: cfg.GameService,
		tokens:      cfg.Tokens,
		log:         log,
	}

	origins := "*"
	if len(cfg.CORSOrigins) > 0 {
		origins = strings.Join(cfg.CORSOrigins, ",")
	}

	h.app = fiber.New(fiber.Config{
		AppName:               "megapoly",
		DisableStartupMessage: true,
		ErrorHandler:          h.renderError,
	})
	h.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))
	h.app.Use(h.logRequests)

	h.app.Get("/healthz", h.health)

	api := h.app.Group("/api/games")
	api.Post("/", h.createGame)
	api.Get("/", h.listGames)
	api.Get("/:id", h.getGame)
	api.Delete("/:id", h.destroyGame)
	api.Post("/:id/join", h.joinGame)
	api.Post("/:id/actions", h.submitAction)
	api.Get("/:id/ledger", h.getLedger)
	api.Post("/:id/commentary", h.getCommentary)

	return h, nil
}

// App returns the fiber application
func (h *Handler) App() *fiber.App {
	return h.app
}

// Listen serves on addr until Shutdown is called
func (h *Handler) Listen(addr string) error {
	return h.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (h *Handler) Shutdown(timeout time.Duration) error {
	return h.app.ShutdownWithTimeout(timeout)
}

func (h *Handler) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	h.log.Debugw("HTTP request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", time.Since(start),
	)
	return err
}

func (h *Handler) renderError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Code: codeForStatus(fe.Code), Reason: fe.Message})
	}

	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		h.log.Errorw("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code.HTTPStatus()).JSON(ErrorResponse{
		Code:   string(code),
		Reason: apperr.ReasonOf(err),
	})
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperr.CodeOf(err).HTTPStatus()
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusNotFound:
		return string(apperr.CodeNotFound)
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusUnauthorized:
		return string(apperr.CodeUnauthorized)
	}
	return string(apperr.CodeInternal)
}

// seat authenticates the bearer token against the game in the path
func (h *Handler) seat(c *fiber.Ctx) (*auth.Claims, error) {
	claims, err := h.tokens.Parse(auth.FromBearer(c.Get(fiber.HeaderAuthorization)))
	if err != nil {
		return nil, err
	}
	if claims.GameID != c.Params("id") {
		return nil, apperr.New(apperr.CodeUnauthorized, "seat token belongs to another game")
	}
	return claims, nil
}

func (h *Handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) createGame(c *fiber.Ctx) error {
	var req CreateGameRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	players := make([]game.PlayerInput, len(req.Players))
	for i, p := range req.Players {
		players[i] = game.PlayerInput{Name: p.Name, Token: p.Token}
	}

	out, err := h.gameService.CreateGame(c.UserContext(), &game.CreateGameInput{
		Players:   players,
		ChannelID: req.ChannelID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(CreateGameResponse{
		GameID:       out.Game.ID,
		HostPlayerID: out.HostPlayerID,
		Seats:        out.Seats,
		Game:         out.Game,
	})
}

func (h *Handler) listGames(c *fiber.Ctx) error {
	status := models.GameStatus(strings.ToUpper(c.Query("status", string(models.GameStatusLobby))))
	switch status {
	case models.GameStatusLobby, models.GameStatusPlaying, models.GameStatusFinished:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown status "+string(status))
	}

	out, err := h.gameService.ListLobbies(c.UserContext(), &game.ListLobbiesInput{Status: status})
	if err != nil {
		return err
	}
	return c.JSON(ListGamesResponse{Games: out.Games})
}

func (h *Handler) getGame(c *fiber.Ctx) error {
	out, err := h.gameService.GetGame(c.UserContext(), &game.GetGameInput{GameID: c.Params("id")})
	if err != nil {
		return err
	}
	return c.JSON(GameResponse{Game: out.Game, Live: out.Live})
}

func (h *Handler) destroyGame(c *fiber.Ctx) error {
	claims, err := h.seat(c)
	if err != nil {
		return err
	}

	current, err := h.gameService.GetGame(c.UserContext(), &game.GetGameInput{GameID: claims.GameID})
	if err != nil {
		return err
	}
	if current.Game.HostPlayerID != claims.PlayerID {
		return apperr.New(apperr.CodeUnauthorized, "only the host can close the game")
	}

	out, err := h.gameService.DestroyGame(c.UserContext(), &game.DestroyGameInput{GameID: claims.GameID})
	if err != nil {
		return err
	}
	return c.JSON(GameResponse{Game: out.Game})
}

func (h *Handler) joinGame(c *fiber.Ctx) error {
	var req PlayerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	out, err := h.gameService.JoinGame(c.UserContext(), &game.JoinGameInput{
		GameID: c.Params("id"),
		Player: game.PlayerInput{Name: req.Name, Token: req.Token},
	})
	if err != nil {
		return err
	}

	return c.JSON(JoinGameResponse{
		GameID:   out.Game.ID,
		PlayerID: out.PlayerID,
		Token:    out.SeatToken,
		Game:     out.Game,
	})
}

func (h *Handler) submitAction(c *fiber.Ctx) error {
	claims, err := h.seat(c)
	if err != nil {
		return err
	}

	var action models.Action
	if err := c.BodyParser(&action); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if action.Type == "" {
		return fiber.NewError(fiber.StatusBadRequest, "action type is required")
	}

	out, err := h.gameService.SubmitAction(c.UserContext(), &game.SubmitActionInput{
		GameID:   claims.GameID,
		PlayerID: claims.PlayerID,
		Action:   action,
	})
	if err != nil {
		return err
	}

	transfers := out.Transfers
	if transfers == nil {
		transfers = []models.Transfer{}
	}
	return c.JSON(ActionResponse{Game: out.Game, Transfers: transfers})
}

func (h *Handler) getLedger(c *fiber.Ctx) error {
	out, err := h.gameService.GetLedger(c.UserContext(), &game.GetLedgerInput{GameID: c.Params("id")})
	if err != nil {
		return err
	}
	return c.JSON(LedgerResponse{Transfers: out.Transfers, Totals: out.Totals})
}

func (h *Handler) getCommentary(c *fiber.Ctx) error {
	claims, err := h.seat(c)
	if err != nil {
		return err
	}

	var req CommentaryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	out, err := h.gameService.GetCommentary(c.UserContext(), &game.GetCommentaryInput{
		GameID:   claims.GameID,
		PlayerID: claims.PlayerID,
		Action:   req.Action,
		TileID:   req.TileID,
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}
