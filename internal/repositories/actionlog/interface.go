package actionlog

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/megapoly/internal/repositories/actionlog Repository

import (
	"context"
	"time"

	"github.com/KirkDiggler/megapoly/internal/models"
)

// Entry is one applied intent
type Entry struct {
	GameID   string        `json:"gameId"`
	Version  uint64        `json:"version"`
	PlayerID int           `json:"playerId"`
	Action   models.Action `json:"action"`
	At       time.Time     `json:"at"`
}

// Repository is an append-only audit trail of applied intents
type Repository interface {
	// Record queues an entry without blocking the caller
	Record(entry Entry)

	// List returns a game's entries ordered by version
	List(ctx context.Context, gameID string) ([]Entry, error)
}
