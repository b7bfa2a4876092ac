package game

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/megapoly/internal/repositories/game Repository

import (
	"context"

	"github.com/KirkDiggler/megapoly/internal/models"
)

// Repository defines the interface for game snapshot persistence
type Repository interface {
	// SaveGame persists a snapshot and updates the status and channel indexes
	SaveGame(ctx context.Context, input *SaveGameInput) error

	// GetGame retrieves a snapshot by game code
	GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error)

	// GetGameByChannel retrieves the game last created from a channel
	GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*models.Game, error)

	// DeleteGame removes a snapshot and its index entries
	DeleteGame(ctx context.Context, input *DeleteGameInput) error

	// ListGames retrieves every game with the given status
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)
}
