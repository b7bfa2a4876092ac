package rest

import (
	"github.com/KirkDiggler/megapoly/internal/models"
	ledgerRepo "github.com/KirkDiggler/megapoly/internal/repositories/ledger"
	"github.com/KirkDiggler/megapoly/internal/services/game"
)

// PlayerRequest is one player in a create or join request
type PlayerRequest struct {
	Name  string       `json:"name"`
	Token models.Token `json:"token,omitempty"`
}

// CreateGameRequest is the body of POST /api/games
type CreateGameRequest struct {
	Players   []PlayerRequest `json:"players"`
	ChannelID string          `json:"channelId,omitempty"`
}

// CreateGameResponse carries the new lobby and one seat token per player
type CreateGameResponse struct {
	GameID       string           `json:"gameId"`
	HostPlayerID int              `json:"hostPlayerId"`
	Seats        []game.SeatToken `json:"seats"`
	Game         *models.Game     `json:"game"`
}

// JoinGameResponse carries the seat taken
type JoinGameResponse struct {
	GameID   string       `json:"gameId"`
	PlayerID int          `json:"playerId"`
	Token    string       `json:"token"`
	Game     *models.Game `json:"game"`
}

// GameResponse wraps a single game
type GameResponse struct {
	Game *models.Game `json:"game"`
	Live bool         `json:"live"`
}

// ListGamesResponse wraps a list of games
type ListGamesResponse struct {
	Games []*models.Game `json:"games"`
}

// ActionResponse is the result of an applied intent
type ActionResponse struct {
	Game      *models.Game      `json:"game"`
	Transfers []models.Transfer `json:"transfers"`
}

// LedgerResponse is the money trail of a game
type LedgerResponse struct {
	Transfers []models.Transfer         `json:"transfers"`
	Totals    []ledgerRepo.PlayerTotals `json:"totals"`
}

// CommentaryRequest is the body of POST /api/games/:id/commentary
type CommentaryRequest struct {
	Action models.ActionType `json:"action,omitempty"`
	TileID *int              `json:"tileId,omitempty"`
}

// ErrorResponse is the body of every rejected request
type ErrorResponse struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
