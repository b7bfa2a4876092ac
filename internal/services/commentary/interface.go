package commentary

//go:generate mockgen -package=mocks -destination=mocks/mock_completer.go github.com/KirkDiggler/megapoly/internal/services/commentary Completer

import "context"

// Service produces flavour text. It never reads or changes game state
// beyond the snapshot it is handed.
type Service interface {
	// GetCommentary returns advisory commentary on a player's move
	GetCommentary(ctx context.Context, input *GetCommentaryInput) (*GetCommentaryOutput, error)

	// GetStatusMessage returns a banner line for a game status
	GetStatusMessage(ctx context.Context, input *GetStatusMessageInput) (*GetStatusMessageOutput, error)

	// GetErrorMessage returns a friendly line for a rejected intent
	GetErrorMessage(ctx context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error)
}

// Completer turns a system prompt and a user prompt into text
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
