package ledger

import "github.com/KirkDiggler/megapoly/internal/models"

// AddTransfersInput contains parameters for appending transfers
type AddTransfersInput struct {
	GameID    string
	Transfers []models.Transfer
}

// GetTransfersForGameInput contains parameters for reading a ledger
type GetTransfersForGameInput struct {
	GameID string
}

// GetTransfersForGameOutput contains a game's transfers, oldest first
type GetTransfersForGameOutput struct {
	Transfers []models.Transfer
}

// GetPlayerTotalsInput contains parameters for reading per-player totals
type GetPlayerTotalsInput struct {
	GameID string
}

// PlayerTotals sums the money a player moved over a game
type PlayerTotals struct {
	PlayerID int `json:"playerId"`
	Paid     int `json:"paid"`
	Received int `json:"received"`
}

// GetPlayerTotalsOutput contains totals ordered by player
type GetPlayerTotalsOutput struct {
	Totals []PlayerTotals
}

// DeleteTransfersInput contains parameters for removing a ledger
type DeleteTransfersInput struct {
	GameID string
}
