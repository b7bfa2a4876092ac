package models

// DeckType names one of the four card decks
type DeckType string

const (
	DeckChance     DeckType = "CHANCE"
	DeckCommunity  DeckType = "COMMUNITY"
	DeckScam       DeckType = "SCAM"
	DeckMegaWealth DeckType = "MEGA_WEALTH"
)

// CardAction is the effect a card applies when drawn
type CardAction string

const (
	CardActionMoney         CardAction = "MONEY"
	CardActionMove          CardAction = "MOVE"
	CardActionJail          CardAction = "JAIL"
	CardActionStealProperty CardAction = "STEAL_PROPERTY"
	CardActionStealMoney    CardAction = "STEAL_MONEY"
	CardActionTaxImmunity   CardAction = "TAX_IMMUNITY"
	CardActionActivateDice  CardAction = "ACTIVATE_DICE"
	CardActionMoneyPerAsset CardAction = "MONEY_PER_ASSET"
	CardActionRepair        CardAction = "REPAIR"
)

// IsValid reports whether a is a known card action
func (a CardAction) IsValid() bool {
	switch a {
	case CardActionMoney, CardActionMove, CardActionJail, CardActionStealProperty,
		CardActionStealMoney, CardActionTaxImmunity, CardActionActivateDice,
		CardActionMoneyPerAsset, CardActionRepair:
		return true
	}
	return false
}

// DiceType is a themed-dice modifier
type DiceType string

const (
	DiceStandard DiceType = "STANDARD"
	DiceScam     DiceType = "SCAM"
	DiceBusiness DiceType = "BUSINESS"
	DiceChaos    DiceType = "CHAOS"
)

// Card is a drawn card stamped with a fresh identity
type Card struct {
	// ID is unique per draw
	ID string `json:"id"`

	// Deck is the deck the card came from
	Deck DeckType `json:"deck"`

	// Title is the headline shown to players
	Title string `json:"title"`

	// Description is the flavor text
	Description string `json:"description"`

	// Action is the effect applied on draw
	Action CardAction `json:"actionType"`

	// Value parameterizes the effect: an amount, a tile ID or a turn count
	Value int `json:"value,omitempty"`

	// DiceType is set for ACTIVATE_DICE cards
	DiceType DiceType `json:"diceType,omitempty"`

	// TargetTypes filters STEAL_PROPERTY to these tile categories
	TargetTypes []TileType `json:"targetTypes,omitempty"`

	// SkipTurns makes the drawer sit out that many turns
	SkipTurns int `json:"skipTurns,omitempty"`
}

// Clone returns an owned copy of the card
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	cp := *c
	if c.TargetTypes != nil {
		cp.TargetTypes = append([]TileType(nil), c.TargetTypes...)
	}
	return &cp
}
