package engine

import (
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// RentFor returns the rent due on a tile: the schedule entry for its
// upgrade level when a schedule exists, otherwise a percentage of its price.
func (e *Engine) RentFor(tile *models.Tile) int {
	if len(tile.Rent) > 0 {
		lvl := min(max(tile.UpgradeLevel, 0), len(tile.Rent)-1)
		return tile.Rent[lvl]
	}
	if tile.Price > 0 {
		return tile.Price * e.rules.RentPercent / 100
	}
	return e.rules.FlatRent
}

func (t *turn) buyProperty(p *models.Player) error {
	if t.g.TurnPhase != models.PhaseAction {
		return apperr.InvalidIntent("cannot buy during %s", t.g.TurnPhase)
	}
	tile := t.g.Tile(p.Position)
	if tile == nil || !tile.IsPurchasable() || tile.IsOwned() {
		return apperr.InvalidIntent("nothing to buy here")
	}
	if p.Money < tile.Price {
		return apperr.InsufficientFunds("%s costs $%dM, %s has $%dM", tile.Name, tile.Price, p.Name, p.Money)
	}

	t.transfer(p, nil, tile.Price, models.TransferReasonPurchase, &tile.ID)
	t.assign(tile, p)
	t.log(models.LogSuccess, "%s bought %s for $%dM", p.Name, tile.Name, tile.Price)
	return t.setPhase(models.PhaseEnd)
}

func (t *turn) declineProperty(p *models.Player) error {
	if t.g.TurnPhase != models.PhaseAction {
		return apperr.InvalidIntent("cannot decline during %s", t.g.TurnPhase)
	}
	tile := t.g.Tile(p.Position)
	if tile == nil || !tile.IsPurchasable() || tile.IsOwned() {
		return apperr.InvalidIntent("nothing to decline here")
	}
	t.log(models.LogInfo, "%s declined %s", p.Name, tile.Name)
	return t.startAuction(tile)
}

// assign gives tile to p, keeping ownerId and the property set in step
func (t *turn) assign(tile *models.Tile, p *models.Player) {
	if tile.OwnerID != nil {
		if prev := t.g.Player(*tile.OwnerID); prev != nil {
			prev.RemoveProperty(tile.ID)
		}
	}
	tile.OwnerID = models.IntPtr(p.ID)
	p.AddProperty(tile.ID)
}

// release returns tile to the bank
func (t *turn) release(tile *models.Tile) {
	if tile.OwnerID != nil {
		if prev := t.g.Player(*tile.OwnerID); prev != nil {
			prev.RemoveProperty(tile.ID)
		}
	}
	tile.OwnerID = nil
	tile.Mortgaged = false
	tile.UpgradeLevel = 0
}

func (t *turn) payRent(p *models.Player, tile *models.Tile) error {
	owner := t.g.Player(*tile.OwnerID)
	switch {
	case owner == nil:
		return apperr.Newf(apperr.CodeInvariantViolation, "tile %d owned by unknown player %d", tile.ID, *tile.OwnerID)
	case owner.IsJailed:
		t.log(models.LogInfo, "%s is in jail and cannot collect rent on %s", owner.Name, tile.Name)
		return t.setPhase(models.PhaseEnd)
	case tile.Mortgaged:
		t.log(models.LogInfo, "%s is mortgaged, no rent due", tile.Name)
		return t.setPhase(models.PhaseEnd)
	}

	rent := t.e.RentFor(tile)
	t.transfer(p, owner, rent, models.TransferReasonRent, &tile.ID)
	t.log(models.LogDanger, "%s paid $%dM rent to %s for %s", p.Name, rent, owner.Name, tile.Name)
	if err := t.setPhase(models.PhaseEnd); err != nil {
		return err
	}
	return t.resolveBankruptcy(p)
}

func (t *turn) payTax(p *models.Player, tile *models.Tile) error {
	if p.TaxImmunityTurns > 0 {
		t.log(models.LogSuccess, "%s is immune to %s", p.Name, tile.Name)
		return t.setPhase(models.PhaseEnd)
	}
	t.transfer(p, nil, tile.Price, models.TransferReasonTax, &tile.ID)
	t.log(models.LogDanger, "%s paid $%dM for %s", p.Name, tile.Price, tile.Name)
	if err := t.setPhase(models.PhaseEnd); err != nil {
		return err
	}
	return t.resolveBankruptcy(p)
}

// resolveBankruptcy eliminates p if a mandatory payment left them in debt.
// Their tiles return to the bank. If p holds the turn, it passes at once;
// if a single solvent player remains, the game is won.
func (t *turn) resolveBankruptcy(p *models.Player) error {
	if p.Money >= 0 || p.Bankrupt {
		return nil
	}
	g := t.g

	for _, id := range append([]int(nil), p.Properties...) {
		if tile := g.Tile(id); tile != nil {
			t.release(tile)
		}
	}
	p.Bankrupt = true
	p.Properties = []int{}
	p.Cards = []string{}
	p.IsJailed = false
	p.JailTurns = 0
	p.TaxImmunityTurns = 0
	p.SkipTurns = 0
	g.Auction.RemoveBidder(p.ID)
	t.log(models.LogDanger, "%s is bankrupt with $%dM and leaves the game", p.Name, p.Money)

	solvent := g.SolventPlayers()
	if len(solvent) <= 1 {
		g.Status = models.GameStatusFinished
		if len(solvent) == 1 {
			g.WinnerID = models.IntPtr(solvent[0])
			t.log(models.LogSuccess, "%s wins the game!", g.Player(solvent[0]).Name)
		}
		if g.TurnPhase != models.PhaseEnd {
			return t.setPhase(models.PhaseEnd)
		}
		return nil
	}

	if cur := g.CurrentPlayer(); cur != nil && cur.ID == p.ID {
		if g.TurnPhase != models.PhaseEnd {
			if err := t.setPhase(models.PhaseEnd); err != nil {
				return err
			}
		}
		return t.passTurn()
	}
	return nil
}

// ownedTile resolves a tile reference that must belong to p
func (t *turn) ownedTile(p *models.Player, tileID *int) (*models.Tile, error) {
	if tileID == nil {
		return nil, apperr.InvalidIntent("tileId is required")
	}
	tile := t.g.Tile(*tileID)
	if tile == nil {
		return nil, apperr.NotFound("tile %d does not exist", *tileID)
	}
	if !tile.OwnedBy(p.ID) {
		return nil, apperr.InvalidIntent("%s does not own %s", p.Name, tile.Name)
	}
	return tile, nil
}

func (t *turn) canManage() error {
	if t.g.TurnPhase == models.PhaseMoving {
		return apperr.InvalidIntent("cannot manage properties while moving")
	}
	return nil
}

func (t *turn) mortgageValue(tile *models.Tile) int {
	return tile.Price * t.e.rules.MortgagePercent / 100
}

func (t *turn) mortgage(p *models.Player, tileID *int) error {
	if err := t.canManage(); err != nil {
		return err
	}
	tile, err := t.ownedTile(p, tileID)
	if err != nil {
		return err
	}
	if tile.Mortgaged {
		return apperr.InvalidIntent("%s is already mortgaged", tile.Name)
	}
	if tile.UpgradeLevel > 0 {
		return apperr.InvalidIntent("%s must be downgraded before mortgaging", tile.Name)
	}

	value := t.mortgageValue(tile)
	tile.Mortgaged = true
	t.transfer(nil, p, value, models.TransferReasonMortgage, &tile.ID)
	t.log(models.LogInfo, "%s mortgaged %s for $%dM", p.Name, tile.Name, value)
	return nil
}

func (t *turn) unmortgage(p *models.Player, tileID *int) error {
	if err := t.canManage(); err != nil {
		return err
	}
	tile, err := t.ownedTile(p, tileID)
	if err != nil {
		return err
	}
	if !tile.Mortgaged {
		return apperr.InvalidIntent("%s is not mortgaged", tile.Name)
	}
	cost := t.mortgageValue(tile) * t.e.rules.UnmortgagePercent / 100
	if p.Money < cost {
		return apperr.InsufficientFunds("lifting the mortgage on %s costs $%dM", tile.Name, cost)
	}

	tile.Mortgaged = false
	t.transfer(p, nil, cost, models.TransferReasonUnmortgage, &tile.ID)
	t.log(models.LogInfo, "%s lifted the mortgage on %s for $%dM", p.Name, tile.Name, cost)
	return nil
}

func (t *turn) upgrade(p *models.Player, tileID *int) error {
	if err := t.canManage(); err != nil {
		return err
	}
	tile, err := t.ownedTile(p, tileID)
	if err != nil {
		return err
	}
	if tile.Mortgaged {
		return apperr.InvalidIntent("%s is mortgaged", tile.Name)
	}
	if tile.UpgradeLevel >= len(tile.Rent)-1 {
		return apperr.InvalidIntent("%s cannot be upgraded further", tile.Name)
	}
	if !t.ownsColorSet(p, tile.Color) {
		return apperr.InvalidIntent("%s must own every unmortgaged tile of the set first", p.Name)
	}
	cost := tile.Price * t.e.rules.UpgradePercent / 100
	if p.Money < cost {
		return apperr.InsufficientFunds("upgrading %s costs $%dM", tile.Name, cost)
	}

	tile.UpgradeLevel++
	t.transfer(p, nil, cost, models.TransferReasonUpgrade, &tile.ID)
	t.log(models.LogSuccess, "%s upgraded %s to level %d", p.Name, tile.Name, tile.UpgradeLevel)
	return nil
}

func (t *turn) ownsColorSet(p *models.Player, color string) bool {
	if color == "" {
		return false
	}
	for i := range t.g.Tiles {
		tile := &t.g.Tiles[i]
		if tile.Color != color || !tile.IsPurchasable() {
			continue
		}
		if !tile.OwnedBy(p.ID) || tile.Mortgaged {
			return false
		}
	}
	return true
}
