package player

import "github.com/KirkDiggler/megapoly/internal/models"

// SaveSeatInput contains parameters for saving a seat
type SaveSeatInput struct {
	Seat *models.Seat
}

// GetSeatInput contains parameters for retrieving a seat
type GetSeatInput struct {
	ExternalID string
}

// GetSeatsInGameInput contains parameters for retrieving seats in a game
type GetSeatsInGameInput struct {
	GameID string
}

// GetSeatsInGameOutput contains the seats bound to a game, ordered by player
type GetSeatsInGameOutput struct {
	Seats []*models.Seat
}

// ReleaseSeatsInput contains parameters for releasing a game's seats
type ReleaseSeatsInput struct {
	GameID string
}
