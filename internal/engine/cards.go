package engine

import (
	"slices"

	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

func (t *turn) drawCard(p *models.Player, tile *models.Tile, depth int) error {
	deck, ok := catalog.DeckFor(tile.Type)
	if !ok {
		return apperr.Newf(apperr.CodeInvariantViolation, "tile %d has no deck", tile.ID)
	}
	card, err := t.e.catalog.Draw(deck, t.e.roller, t.e.uuid)
	if err != nil {
		return apperr.Wrap(apperr.CodeInvariantViolation, "draw failed", err)
	}

	t.g.CurrentCard = card
	t.log(models.LogInfo, "%s drew \"%s\": %s", p.Name, card.Title, card.Description)
	return t.applyCard(p, card, depth)
}

// applyCard resolves a card effect at draw time. Relocation re-dispatches
// the destination tile.
func (t *turn) applyCard(p *models.Player, card *models.Card, depth int) error {
	if card.SkipTurns > 0 {
		p.SkipTurns += card.SkipTurns
	}

	switch card.Action {
	case models.CardActionMoney:
		if card.Value >= 0 {
			t.transfer(nil, p, card.Value, models.TransferReasonCard, nil)
		} else {
			t.transfer(p, nil, -card.Value, models.TransferReasonCard, nil)
		}
		return t.endAfterPayment(p)

	case models.CardActionMove:
		target := card.Value
		if target < p.Position {
			t.passGo(p)
		}
		p.Position = target
		return t.land(p, depth+1)

	case models.CardActionJail:
		return t.sendToJail(p)

	case models.CardActionStealMoney:
		t.stealMoney(p, card.Value)
		return t.setPhase(models.PhaseEnd)

	case models.CardActionStealProperty:
		t.stealProperty(p, card.TargetTypes)
		return t.setPhase(models.PhaseEnd)

	case models.CardActionTaxImmunity:
		p.TaxImmunityTurns += card.Value
		p.ImmunityFresh = true
		p.Cards = append(p.Cards, card.ID)
		t.log(models.LogSuccess, "%s is immune to taxes for %d turns", p.Name, card.Value)
		return t.setPhase(models.PhaseEnd)

	case models.CardActionActivateDice:
		p.NextDiceType = card.DiceType
		return t.setPhase(models.PhaseEnd)

	case models.CardActionMoneyPerAsset:
		t.transfer(nil, p, card.Value*len(p.Properties), models.TransferReasonCard, nil)
		return t.setPhase(models.PhaseEnd)

	case models.CardActionRepair:
		t.transfer(p, nil, card.Value*len(p.Properties), models.TransferReasonCard, nil)
		return t.endAfterPayment(p)
	}
	return apperr.Newf(apperr.CodeInvariantViolation, "unknown card action %q", card.Action)
}

func (t *turn) endAfterPayment(p *models.Player) error {
	if err := t.setPhase(models.PhaseEnd); err != nil {
		return err
	}
	return t.resolveBankruptcy(p)
}

// stealMoney takes up to amount from every other solvent player, never
// more than they hold.
func (t *turn) stealMoney(p *models.Player, amount int) {
	for i := range t.g.Players {
		victim := &t.g.Players[i]
		if victim.ID == p.ID || victim.Bankrupt {
			continue
		}
		take := min(amount, max(victim.Money, 0))
		if take == 0 {
			continue
		}
		t.transfer(victim, p, take, models.TransferReasonCard, nil)
		t.log(models.LogDanger, "%s took $%dM from %s", p.Name, take, victim.Name)
	}
}

// stealProperty moves one random tile of a random rival to p. When types
// is non-empty only those tile categories qualify.
func (t *turn) stealProperty(p *models.Player, types []models.TileType) {
	type victim struct {
		player *models.Player
		tiles  []int
	}
	var victims []victim
	for i := range t.g.Players {
		other := &t.g.Players[i]
		if other.ID == p.ID || other.Bankrupt {
			continue
		}
		var tiles []int
		for _, id := range other.Properties {
			tile := t.g.Tile(id)
			if tile == nil {
				continue
			}
			if len(types) > 0 && !slices.Contains(types, tile.Type) {
				continue
			}
			tiles = append(tiles, id)
		}
		if len(tiles) > 0 {
			victims = append(victims, victim{player: other, tiles: tiles})
		}
	}

	if len(victims) == 0 {
		t.log(models.LogInfo, "There was nothing for %s to steal", p.Name)
		return
	}

	v := victims[t.e.roller.Intn(len(victims))]
	tile := t.g.Tile(v.tiles[t.e.roller.Intn(len(v.tiles))])
	t.assign(tile, p)
	t.log(models.LogDanger, "%s stole %s from %s", p.Name, tile.Name, v.player.Name)
}
