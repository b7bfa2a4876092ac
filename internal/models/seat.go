package models

// Seat binds an external identity, such as a chat user, to a player slot
type Seat struct {
	// ExternalID is the identity outside the game, e.g. a Discord user ID
	ExternalID string `json:"externalId"`

	// Name is the display name used when joining
	Name string `json:"name"`

	// GameID is the game the seat belongs to
	GameID string `json:"gameId"`

	// PlayerID is the player slot in that game
	PlayerID int `json:"playerId"`
}
