package game

import "github.com/KirkDiggler/megapoly/internal/common/apperr"

// GameError is a custom error type for game-related errors
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNilConfig        GameError = "config cannot be nil"
	ErrNilRegistry      GameError = "session registry cannot be nil"
	ErrNilGameRepo      GameError = "game repository cannot be nil"
	ErrNilSeatRepo      GameError = "seat repository cannot be nil"
	ErrNilLedgerRepo    GameError = "ledger repository cannot be nil"
	ErrNilActionLog     GameError = "action log cannot be nil"
	ErrNilArchive       GameError = "archive cannot be nil"
	ErrNilCommentary    GameError = "commentary service cannot be nil"
	ErrNilTokenIssuer   GameError = "token issuer cannot be nil"
	ErrNilClock         GameError = "clock cannot be nil"
	ErrNilInput         GameError = "input cannot be nil"
	ErrGameIDRequired   GameError = "game ID is required"
	ErrExternalRequired GameError = "external ID is required"
	ErrChannelRequired  GameError = "channel ID is required"
)

// ErrChannelBusy is returned when a channel already hosts an unfinished game
var ErrChannelBusy = apperr.New(apperr.CodeInvalidIntent, "channel already hosts a game")
