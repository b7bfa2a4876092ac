package game

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/megapoly/internal/services/game Service

import (
	"context"

	"github.com/KirkDiggler/megapoly/internal/services/commentary"
)

// Service defines the interface for game operations. Every transport goes
// through it; it owns the live games and keeps their persisted copies current.
type Service interface {
	// CreateGame opens a lobby and seats the initial players
	CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error)

	// JoinGame seats a player in a lobby, or returns the seat an identity already holds
	JoinGame(ctx context.Context, input *JoinGameInput) (*JoinGameOutput, error)

	// SubmitAction applies one intent and returns the committed state
	SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error)

	// GetGame returns the live state, or the last persisted or archived one
	GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error)

	// ListLobbies returns live games in a status, LOBBY by default
	ListLobbies(ctx context.Context, input *ListLobbiesInput) (*ListLobbiesOutput, error)

	// DestroyGame stops a game, archives it and drops its persisted state
	DestroyGame(ctx context.Context, input *DestroyGameInput) (*DestroyGameOutput, error)

	// Subscribe streams snapshots of a live game
	Subscribe(ctx context.Context, input *SubscribeInput) (*SubscribeOutput, error)

	// GetLedger returns every transfer of a game and per-player totals
	GetLedger(ctx context.Context, input *GetLedgerInput) (*GetLedgerOutput, error)

	// GetSeat returns the seat an external identity holds
	GetSeat(ctx context.Context, input *GetSeatInput) (*GetSeatOutput, error)

	// GetGameByChannel returns the game hosted in a chat channel
	GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*GetGameOutput, error)

	// GetCommentary returns advisory text about a player's situation
	GetCommentary(ctx context.Context, input *GetCommentaryInput) (*commentary.GetCommentaryOutput, error)

	// Restore resumes persisted lobbies and running games
	Restore(ctx context.Context) (*RestoreOutput, error)
}
