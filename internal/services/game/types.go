package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/auth"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/internal/repositories/actionlog"
	gameRepo "github.com/KirkDiggler/megapoly/internal/repositories/game"
	ledgerRepo "github.com/KirkDiggler/megapoly/internal/repositories/ledger"
	playerRepo "github.com/KirkDiggler/megapoly/internal/repositories/player"
	"github.com/KirkDiggler/megapoly/internal/services/commentary"
	"github.com/KirkDiggler/megapoly/internal/session"
)

// Archive keeps final game states
type Archive interface {
	Write(game *models.Game) error
	Read(gameID string) (*models.Game, error)
}

// Config holds the collaborators of the game service
type Config struct {
	Registry *session.Registry

	GameRepo   gameRepo.Repository
	SeatRepo   playerRepo.Repository
	LedgerRepo ledgerRepo.Repository
	ActionLog  actionlog.Repository
	Archive    Archive

	Commentary commentary.Service
	Tokens     *auth.Issuer
	Clock      clock.Clock

	// PersistTimeout bounds each write made after a committed change
	PersistTimeout time.Duration

	Logger *zap.SugaredLogger
}

// PlayerInput describes a player taking a seat
type PlayerInput struct {
	Name  string
	Token models.Token

	// ExternalID binds the seat to an outside identity, e.g. a Discord user
	ExternalID string
}

// SeatToken is the credential for one seat
type SeatToken struct {
	PlayerID int    `json:"playerId"`
	Token    string `json:"token"`
}

// CreateGameInput contains parameters for creating a game
type CreateGameInput struct {
	Players   []PlayerInput
	ChannelID string
}

// CreateGameOutput contains the new lobby and one token per seat
type CreateGameOutput struct {
	Game         *models.Game
	HostPlayerID int
	Seats        []SeatToken
}

// JoinGameInput contains parameters for joining a game
type JoinGameInput struct {
	GameID string
	Player PlayerInput
}

// JoinGameOutput contains the seat taken
type JoinGameOutput struct {
	Game      *models.Game
	PlayerID  int
	SeatToken string

	// Rejoined is set when the identity already held this seat
	Rejoined bool
}

// SubmitActionInput contains parameters for submitting an intent
type SubmitActionInput struct {
	GameID   string
	PlayerID int
	Action   models.Action
}

// SubmitActionOutput contains the committed state
type SubmitActionOutput struct {
	Game      *models.Game
	Transfers []models.Transfer
}

// GetGameInput contains parameters for reading a game
type GetGameInput struct {
	GameID string
}

// GetGameOutput contains a game state
type GetGameOutput struct {
	Game *models.Game

	// Live is false when the state came from storage
	Live bool
}

// ListLobbiesInput contains parameters for listing games
type ListLobbiesInput struct {
	// Status defaults to LOBBY
	Status models.GameStatus
}

// ListLobbiesOutput contains games ordered by creation time
type ListLobbiesOutput struct {
	Games []*models.Game
}

// DestroyGameInput contains parameters for destroying a game
type DestroyGameInput struct {
	GameID string
}

// DestroyGameOutput contains the final state
type DestroyGameOutput struct {
	Game *models.Game
}

// SubscribeInput contains parameters for subscribing to a game
type SubscribeInput struct {
	GameID string

	// Buffer is the channel capacity; lagging readers only see the latest state
	Buffer int
}

// SubscribeOutput contains the snapshot stream. Cancel must be called once
// the caller stops reading.
type SubscribeOutput struct {
	Updates <-chan *models.Game
	Cancel  func()
}

// GetLedgerInput contains parameters for reading a ledger
type GetLedgerInput struct {
	GameID string
}

// GetLedgerOutput contains the transfers of a game, oldest first
type GetLedgerOutput struct {
	Transfers []models.Transfer
	Totals    []ledgerRepo.PlayerTotals
}

// GetSeatInput contains parameters for finding a seat
type GetSeatInput struct {
	ExternalID string
}

// GetSeatOutput contains the seat held by an identity
type GetSeatOutput struct {
	Seat *models.Seat
}

// GetGameByChannelInput contains parameters for finding a channel's game
type GetGameByChannelInput struct {
	ChannelID string
}

// GetCommentaryInput contains parameters for requesting commentary
type GetCommentaryInput struct {
	GameID   string
	PlayerID int
	Action   models.ActionType
	TileID   *int
}

// RestoreOutput reports how many games resumed
type RestoreOutput struct {
	Restored int
	Failed   int
}
