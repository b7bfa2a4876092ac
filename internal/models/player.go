package models

import "slices"

// Token is the cosmetic game piece of a player
type Token string

const (
	TokenJet     Token = "JET"
	TokenYacht   Token = "YACHT"
	TokenOil     Token = "OIL"
	TokenCrypto  Token = "CRYPTO"
	TokenScam    Token = "SCAM"
	TokenTrain   Token = "TRAIN"
	TokenBolt    Token = "BOLT"
	TokenChip    Token = "CHIP"
	TokenDiamond Token = "DIAMOND"
	TokenWatch   Token = "WATCH"
)

// Tokens lists every token in assignment order
var Tokens = []Token{
	TokenJet, TokenYacht, TokenOil, TokenCrypto, TokenScam,
	TokenTrain, TokenBolt, TokenChip, TokenDiamond, TokenWatch,
}

// IsValid reports whether t is a known token
func (t Token) IsValid() bool {
	return slices.Contains(Tokens, t)
}

// Player is a participant in a game
type Player struct {
	// ID is 1-based and stable for the lifetime of the game
	ID int `json:"id"`

	// Name is the display name of the player
	Name string `json:"name"`

	// Token is unique per game
	Token Token `json:"token"`

	// Money can go below zero only as the trigger for bankruptcy
	Money int `json:"money"`

	// Position is the current ring position, 0..59
	Position int `json:"position"`

	// IsJailed is set while the player sits in jail
	IsJailed bool `json:"isJailed"`

	// JailTurns counts failed escape rolls
	JailTurns int `json:"jailTurns"`

	// Properties holds the IDs of owned tiles
	Properties []int `json:"properties"`

	// Cards holds the IDs of special cards kept by the player
	Cards []string `json:"cards"`

	// TaxImmunityTurns is the number of turns tax tiles are waived
	TaxImmunityTurns int `json:"taxImmunityTurns"`

	// ImmunityFresh marks immunity granted during the current turn, which
	// does not count against TaxImmunityTurns
	ImmunityFresh bool `json:"immunityFresh,omitempty"`

	// NextDiceType is applied to the player's next roll
	NextDiceType DiceType `json:"nextDiceType,omitempty"`

	// SkipTurns is the number of upcoming turns the player sits out
	SkipTurns int `json:"skipTurns"`

	// Bankrupt players are out of the rotation for good
	Bankrupt bool `json:"bankrupt"`
}

// Owns reports whether tileID is in the player's property set
func (p *Player) Owns(tileID int) bool {
	return slices.Contains(p.Properties, tileID)
}

// AddProperty appends tileID to the property set
func (p *Player) AddProperty(tileID int) {
	if !p.Owns(tileID) {
		p.Properties = append(p.Properties, tileID)
	}
}

// RemoveProperty drops tileID from the property set
func (p *Player) RemoveProperty(tileID int) {
	p.Properties = slices.DeleteFunc(p.Properties, func(id int) bool { return id == tileID })
}

// Clone returns an owned copy of the player
func (p Player) Clone() Player {
	c := p
	c.Properties = append([]int{}, p.Properties...)
	c.Cards = append([]string{}, p.Cards...)
	return c
}
