package models

import (
	"time"
)

// GameStatus represents the lifecycle stage of a game
type GameStatus string

const (
	// GameStatusLobby indicates a game is waiting for players to join
	GameStatusLobby GameStatus = "LOBBY"

	// GameStatusPlaying indicates a game is in progress
	GameStatusPlaying GameStatus = "PLAYING"

	// GameStatusFinished indicates a game has a winner or was closed
	GameStatusFinished GameStatus = "FINISHED"
)

// TurnPhase is the step the current player must complete
type TurnPhase string

const (
	PhaseRoll   TurnPhase = "ROLL"
	PhaseMoving TurnPhase = "MOVING"
	PhaseAction TurnPhase = "ACTION"
	PhaseEnd    TurnPhase = "END"
)

// Game is the aggregate root for one game instance
type Game struct {
	// ID is the short lobby code
	ID string `json:"id"`

	// ChannelID is the chat channel hosting the game, if any
	ChannelID string `json:"channelId,omitempty"`

	// Players in turn order, fixed at creation
	Players []Player `json:"players"`

	// CurrentPlayerIndex points into Players
	CurrentPlayerIndex int `json:"currentPlayerIndex"`

	// Tiles is the live 60 tile board
	Tiles []Tile `json:"tiles"`

	// Dice is the last roll
	Dice [2]int `json:"dice"`

	// ActiveDiceType is the themed-dice modifier of the last roll
	ActiveDiceType DiceType `json:"activeDiceType"`

	// TurnPhase is only advanced by the engine
	TurnPhase TurnPhase `json:"turnPhase"`

	// ConsecutiveDoubles counts doubles in the current turn
	ConsecutiveDoubles int `json:"consecutiveDoubles"`

	// CurrentCard is the card drawn this turn
	CurrentCard *Card `json:"currentCard"`

	// Auction is the bidding sub-state
	Auction AuctionState `json:"auctionState"`

	// Log holds the newest entries first
	Log []LogEntry `json:"gameLog"`

	// Status is the lifecycle stage
	Status GameStatus `json:"gameStatus"`

	// HostPlayerID is the player allowed to start the game
	HostPlayerID int `json:"hostPlayerId"`

	// WinnerID is set once a single solvent player remains
	WinnerID *int `json:"winnerId,omitempty"`

	// Version increments on every applied intent
	Version uint64 `json:"version"`

	// CreatedAt is when the game was created
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the game was last updated
	UpdatedAt time.Time `json:"updatedAt"`
}

// CurrentPlayer returns the player whose turn it is
func (g *Game) CurrentPlayer() *Player {
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return &g.Players[g.CurrentPlayerIndex]
}

// Player returns the player with the given ID, or nil
func (g *Game) Player(id int) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// Tile returns the tile at position id, or nil
func (g *Game) Tile(id int) *Tile {
	if id < 0 || id >= len(g.Tiles) {
		return nil
	}
	return &g.Tiles[id]
}

// SolventPlayers returns the IDs of players still in the game, in turn order
func (g *Game) SolventPlayers() []int {
	ids := make([]int, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.Bankrupt {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Clone returns a deep copy safe to hand to other goroutines
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		c.Players[i] = p.Clone()
	}
	c.Tiles = make([]Tile, len(g.Tiles))
	for i, t := range g.Tiles {
		c.Tiles[i] = t.Clone()
	}
	c.CurrentCard = g.CurrentCard.Clone()
	c.Auction = g.Auction.Clone()
	c.Log = append([]LogEntry(nil), g.Log...)
	if g.WinnerID != nil {
		c.WinnerID = IntPtr(*g.WinnerID)
	}
	return &c
}
