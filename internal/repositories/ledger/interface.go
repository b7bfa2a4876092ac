package ledger

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/megapoly/internal/repositories/ledger Repository

import (
	"context"
)

// Repository defines the interface for money ledger persistence
type Repository interface {
	// AddTransfers appends transfers to a game's ledger in order
	AddTransfers(ctx context.Context, input *AddTransfersInput) error

	// GetTransfersForGame retrieves a game's ledger, oldest first
	GetTransfersForGame(ctx context.Context, input *GetTransfersForGameInput) (*GetTransfersForGameOutput, error)

	// GetPlayerTotals retrieves how much each player paid and received
	GetPlayerTotals(ctx context.Context, input *GetPlayerTotalsInput) (*GetPlayerTotalsOutput, error)

	// DeleteTransfers removes a game's ledger
	DeleteTransfers(ctx context.Context, input *DeleteTransfersInput) error
}
