package session

import (
	"github.com/KirkDiggler/megapoly/internal/models"
)

// EventKind says what changed a game
type EventKind string

const (
	EventCreated        EventKind = "created"
	EventJoined         EventKind = "joined"
	EventApplied        EventKind = "applied"
	EventAuctionExpired EventKind = "auction_expired"
)

// Event describes one committed change. Game is a snapshot shared with
// every hook and subscriber and must be treated as read-only.
type Event struct {
	Kind EventKind

	// Game is the state after the change
	Game *models.Game

	// PlayerID is the acting player, zero for timer-driven changes
	PlayerID int

	// Action is the applied intent for EventApplied
	Action *models.Action

	// Transfers lists the money movements the change produced
	Transfers []models.Transfer
}

// Hook observes committed changes. Hooks run inside the game's actor, in
// registration order, so they see changes in commit order and must not
// call back into the same instance.
type Hook func(ev Event)
