package models

import (
	"time"
)

// TransferReason represents why money moved
type TransferReason string

const (
	TransferReasonPurchase   TransferReason = "purchase"
	TransferReasonRent       TransferReason = "rent"
	TransferReasonPassGo     TransferReason = "pass_go"
	TransferReasonTax        TransferReason = "tax"
	TransferReasonCard       TransferReason = "card"
	TransferReasonAuction    TransferReason = "auction"
	TransferReasonBail       TransferReason = "bail"
	TransferReasonMortgage   TransferReason = "mortgage"
	TransferReasonUnmortgage TransferReason = "unmortgage"
	TransferReasonUpgrade    TransferReason = "upgrade"
)

// Transfer records money moving between players or the bank
type Transfer struct {
	// GameID is the game the transfer belongs to
	GameID string `json:"gameId"`

	// Version is the game version that produced the transfer
	Version uint64 `json:"version"`

	// FromPlayerID is the payer, nil for the bank
	FromPlayerID *int `json:"fromPlayerId"`

	// ToPlayerID is the payee, nil for the bank
	ToPlayerID *int `json:"toPlayerId"`

	// Amount is always positive
	Amount int `json:"amount"`

	// Reason is why the money moved
	Reason TransferReason `json:"reason"`

	// TileID is the tile involved, if any
	TileID *int `json:"tileId,omitempty"`

	// Timestamp is when the transfer happened
	Timestamp time.Time `json:"timestamp"`
}
