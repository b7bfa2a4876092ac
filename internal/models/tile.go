package models

// TileType is the category of a board tile
type TileType string

const (
	TileTypeStart          TileType = "START"
	TileTypeProperty       TileType = "PROPERTY"
	TileTypeRailroad       TileType = "RAILROAD"
	TileTypeUtility        TileType = "UTILITY"
	TileTypeTax            TileType = "TAX"
	TileTypeJail           TileType = "JAIL"
	TileTypeGoToJail       TileType = "GO_TO_JAIL"
	TileTypeFreeParking    TileType = "FREE_PARKING"
	TileTypeChance         TileType = "CHANCE"
	TileTypeCommunityChest TileType = "COMMUNITY_CHEST"
	TileTypeScam           TileType = "SCAM"
	TileTypeMegaWealth     TileType = "MEGA_WEALTH"
	TileTypeBlackMarket    TileType = "BLACK_MARKET"
	TileTypeOilCompany     TileType = "OIL_COMPANY"
	TileTypeTechHub        TileType = "TECH_HUB"
	TileTypeScamAcademy    TileType = "SCAM_ACADEMY"
	TileTypeCryptoExchange TileType = "CRYPTO_EXCHANGE"
	TileTypeDisaster       TileType = "DISASTER"
)

// Tile is one ring position with its live ownership state
type Tile struct {
	// ID is the fixed ring position, 0..59
	ID int `json:"id"`

	// Name is the display name
	Name string `json:"name"`

	// Type is the tile category
	Type TileType `json:"type"`

	// Price is the purchase price, or the amount due on tax tiles
	Price int `json:"price,omitempty"`

	// Rent is the rent schedule indexed by upgrade level
	Rent []int `json:"rent,omitempty"`

	// Color groups tiles into monopoly sets
	Color string `json:"color,omitempty"`

	// OwnerID is the owning player's ID, nil when unowned
	OwnerID *int `json:"ownerId"`

	// Mortgaged is set while the tile is mortgaged to the bank
	Mortgaged bool `json:"mortgaged"`

	// UpgradeLevel indexes into Rent
	UpgradeLevel int `json:"upgradeLevel"`
}

// IsOwned reports whether any player owns the tile
func (t *Tile) IsOwned() bool {
	return t.OwnerID != nil
}

// OwnedBy reports whether playerID owns the tile
func (t *Tile) OwnedBy(playerID int) bool {
	return t.OwnerID != nil && *t.OwnerID == playerID
}

// IsCardTile reports whether landing on the tile draws a card
func (t *Tile) IsCardTile() bool {
	switch t.Type {
	case TileTypeChance, TileTypeCommunityChest, TileTypeScam, TileTypeMegaWealth:
		return true
	}
	return false
}

// IsPurchasable reports whether the tile can be bought
func (t *Tile) IsPurchasable() bool {
	if t.Price <= 0 {
		return false
	}
	switch t.Type {
	case TileTypeProperty, TileTypeRailroad, TileTypeUtility, TileTypeTechHub,
		TileTypeOilCompany, TileTypeScamAcademy, TileTypeBlackMarket:
		return true
	}
	return false
}

// Clone returns an owned copy of the tile
func (t Tile) Clone() Tile {
	c := t
	if t.Rent != nil {
		c.Rent = append([]int(nil), t.Rent...)
	}
	if t.OwnerID != nil {
		c.OwnerID = IntPtr(*t.OwnerID)
	}
	return c
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
