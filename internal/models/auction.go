package models

import (
	"slices"
	"time"
)

// AuctionState is the bidding sub-state of a game
type AuctionState struct {
	// IsActive is set while bidding is open
	IsActive bool `json:"isActive"`

	// PropertyID is the tile under auction
	PropertyID *int `json:"propertyId"`

	// CurrentBid is the amount to beat
	CurrentBid int `json:"currentBid"`

	// HighestBidderID is nil until the first accepted bid
	HighestBidderID *int `json:"highestBidderId"`

	// ActiveBidders only ever shrinks
	ActiveBidders []int `json:"activeBidders"`

	// Deadline closes the auction when set
	Deadline *time.Time `json:"deadline,omitempty"`
}

// IsBidder reports whether playerID is still bidding
func (a *AuctionState) IsBidder(playerID int) bool {
	return slices.Contains(a.ActiveBidders, playerID)
}

// RemoveBidder drops playerID from the bidders. A withdrawn bidder no
// longer holds the lead; the current bid stays as the amount to beat.
func (a *AuctionState) RemoveBidder(playerID int) {
	a.ActiveBidders = slices.DeleteFunc(a.ActiveBidders, func(id int) bool { return id == playerID })
	if a.HighestBidderID != nil && *a.HighestBidderID == playerID {
		a.HighestBidderID = nil
	}
}

// Clone returns an owned copy of the auction state
func (a AuctionState) Clone() AuctionState {
	c := a
	c.ActiveBidders = append([]int{}, a.ActiveBidders...)
	if a.PropertyID != nil {
		c.PropertyID = IntPtr(*a.PropertyID)
	}
	if a.HighestBidderID != nil {
		c.HighestBidderID = IntPtr(*a.HighestBidderID)
	}
	if a.Deadline != nil {
		d := *a.Deadline
		c.Deadline = &d
	}
	return c
}
