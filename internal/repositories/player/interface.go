package player

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/megapoly/internal/repositories/player Repository

import (
	"context"

	"github.com/KirkDiggler/megapoly/internal/models"
)

// Repository defines the interface for seat persistence. A seat binds an
// external identity to a player slot; each identity holds one seat at a time.
type Repository interface {
	// SaveSeat binds an identity to a player slot, replacing any older seat
	SaveSeat(ctx context.Context, input *SaveSeatInput) error

	// GetSeat retrieves the seat currently held by an identity
	GetSeat(ctx context.Context, input *GetSeatInput) (*models.Seat, error)

	// GetSeatsInGame retrieves every seat bound to a game
	GetSeatsInGame(ctx context.Context, input *GetSeatsInGameInput) (*GetSeatsInGameOutput, error)

	// ReleaseSeats drops every seat still bound to a game
	ReleaseSeats(ctx context.Context, input *ReleaseSeatsInput) error
}
