package models

// ActionType is an intent a client can submit
type ActionType string

const (
	ActionRollDice           ActionType = "ROLL_DICE"
	ActionEndTurn            ActionType = "END_TURN"
	ActionBuyProperty        ActionType = "BUY_PROPERTY"
	ActionDeclineProperty    ActionType = "DECLINE_PROPERTY"
	ActionStartAuction       ActionType = "START_AUCTION"
	ActionBidAuction         ActionType = "BID_AUCTION"
	ActionStartGame          ActionType = "START_GAME"
	ActionPayBail            ActionType = "PAY_BAIL"
	ActionMortgageProperty   ActionType = "MORTGAGE_PROPERTY"
	ActionUnmortgageProperty ActionType = "UNMORTGAGE_PROPERTY"
	ActionUpgradeProperty    ActionType = "UPGRADE_PROPERTY"
)

// Action is one client intent with its payload
type Action struct {
	// Type selects the handler
	Type ActionType `json:"type"`

	// Amount is the bid for BID_AUCTION
	Amount int `json:"amount,omitempty"`

	// Fold withdraws from the auction instead of bidding
	Fold bool `json:"fold,omitempty"`

	// TileID targets MORTGAGE, UNMORTGAGE and UPGRADE actions
	TileID *int `json:"tileId,omitempty"`
}
