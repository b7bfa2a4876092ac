package commentary

import (
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// EventKind groups moves that share fallback lines
type EventKind string

const (
	EventPurchase EventKind = "purchase"
	EventAuction  EventKind = "auction"
	EventRoll     EventKind = "roll"
	EventJail     EventKind = "jail"
	EventBankrupt EventKind = "bankrupt"
	EventEndTurn  EventKind = "end_turn"
	EventManage   EventKind = "manage"
	EventGeneric  EventKind = "generic"
)

// Source says where a commentary line came from
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// GetCommentaryInput contains parameters for commentary on a move
type GetCommentaryInput struct {
	// Game is the snapshot the move produced
	Game *models.Game

	// PlayerID is the player whose move is discussed
	PlayerID int

	// Action is the move, e.g. BUY_PROPERTY
	Action models.ActionType

	// TileID is the tile involved, defaulting to the player's position
	TileID *int
}

// GetCommentaryOutput contains the commentary
type GetCommentaryOutput struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// GetStatusMessageInput contains parameters for a status banner
type GetStatusMessageInput struct {
	Status      models.GameStatus
	PlayerCount int
	WinnerName  string
}

// GetStatusMessageOutput contains the banner
type GetStatusMessageOutput struct {
	Message string
}

// GetErrorMessageInput contains parameters for a rejection line
type GetErrorMessageInput struct {
	PlayerName string
	Code       apperr.Code
	Reason     string
}

// GetErrorMessageOutput contains the rejection line
type GetErrorMessageOutput struct {
	Title   string
	Message string
}
