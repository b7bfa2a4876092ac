package engine

import (
	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// maxCardChain bounds how many relocation cards one move can chain
const maxCardChain = 1

func (t *turn) doublesPending(p *models.Player) bool {
	return t.g.ConsecutiveDoubles > 0 && !p.IsJailed && !p.Bankrupt
}

func (t *turn) rollDice(p *models.Player) error {
	g := t.g
	switch g.TurnPhase {
	case models.PhaseRoll:
	case models.PhaseAction:
		if !t.doublesPending(p) {
			return apperr.InvalidIntent("cannot roll during %s", g.TurnPhase)
		}
		if err := t.setPhase(models.PhaseRoll); err != nil {
			return err
		}
	default:
		return apperr.InvalidIntent("cannot roll during %s", g.TurnPhase)
	}

	d1, d2 := t.e.roller.Roll(6), t.e.roller.Roll(6)
	g.Dice = [2]int{d1, d2}
	g.ActiveDiceType = models.DiceStandard
	if p.NextDiceType != "" {
		g.ActiveDiceType = p.NextDiceType
	}
	p.NextDiceType = models.DiceStandard
	doubles := d1 == d2

	if p.IsJailed {
		return t.jailRoll(p, d1+d2, doubles)
	}

	if doubles {
		g.ConsecutiveDoubles++
		t.log(models.LogInfo, "%s rolled a double %d-%d", p.Name, d1, d2)
	} else {
		g.ConsecutiveDoubles = 0
		t.log(models.LogInfo, "%s rolled %d-%d", p.Name, d1, d2)
	}

	if g.ConsecutiveDoubles >= t.e.rules.DoublesToJail {
		t.log(models.LogDanger, "%s rolled %d doubles in a row and is caught speeding", p.Name, g.ConsecutiveDoubles)
		return t.sendToJail(p)
	}

	if err := t.setPhase(models.PhaseMoving); err != nil {
		return err
	}
	return t.move(p, d1+d2)
}

func (t *turn) jailRoll(p *models.Player, steps int, doubles bool) error {
	t.g.ConsecutiveDoubles = 0

	if doubles {
		p.IsJailed = false
		p.JailTurns = 0
		t.log(models.LogSuccess, "%s rolled a double and walks out of jail", p.Name)
		if err := t.setPhase(models.PhaseMoving); err != nil {
			return err
		}
		return t.move(p, steps)
	}

	p.JailTurns++
	if p.JailTurns < t.e.rules.JailMaxTurns {
		t.log(models.LogInfo, "%s stays in jail (%d/%d)", p.Name, p.JailTurns, t.e.rules.JailMaxTurns)
		return t.setPhase(models.PhaseEnd)
	}

	t.transfer(p, nil, t.e.rules.BailAmount, models.TransferReasonBail, nil)
	p.IsJailed = false
	p.JailTurns = 0
	t.log(models.LogInfo, "%s pays $%dM bail after %d turns", p.Name, t.e.rules.BailAmount, t.e.rules.JailMaxTurns)
	if p.Money < 0 {
		return t.resolveBankruptcy(p)
	}
	if err := t.setPhase(models.PhaseMoving); err != nil {
		return err
	}
	return t.move(p, steps)
}

func (t *turn) payBail(p *models.Player) error {
	if t.g.TurnPhase != models.PhaseRoll {
		return apperr.InvalidIntent("bail can only be paid before rolling")
	}
	if !p.IsJailed {
		return apperr.InvalidIntent("%s is not in jail", p.Name)
	}
	if p.Money < t.e.rules.BailAmount {
		return apperr.InsufficientFunds("bail costs $%dM", t.e.rules.BailAmount)
	}

	t.transfer(p, nil, t.e.rules.BailAmount, models.TransferReasonBail, nil)
	p.IsJailed = false
	p.JailTurns = 0
	t.log(models.LogInfo, "%s paid $%dM bail", p.Name, t.e.rules.BailAmount)
	return nil
}

// sendToJail ends the turn from any phase that may reach END
func (t *turn) sendToJail(p *models.Player) error {
	p.IsJailed = true
	p.JailTurns = 0
	p.Position = catalog.JailPosition
	t.g.ConsecutiveDoubles = 0
	t.log(models.LogDanger, "%s goes to jail", p.Name)
	return t.setPhase(models.PhaseEnd)
}

func (t *turn) move(p *models.Player, steps int) error {
	old := p.Position
	p.Position = (old + steps) % catalog.BoardSize
	if p.Position < old {
		t.passGo(p)
	}
	return t.land(p, 0)
}

func (t *turn) passGo(p *models.Player) {
	t.transfer(nil, p, t.e.rules.PassGoBonus, models.TransferReasonPassGo, nil)
	t.log(models.LogSuccess, "%s passed START and collects $%dM", p.Name, t.e.rules.PassGoBonus)
}

// land dispatches the effect of the tile under p
func (t *turn) land(p *models.Player, depth int) error {
	tile := t.g.Tile(p.Position)
	if tile == nil {
		return apperr.Newf(apperr.CodeInvariantViolation, "player %d is off the board at %d", p.ID, p.Position)
	}

	switch {
	case tile.Type == models.TileTypeGoToJail:
		return t.sendToJail(p)

	case tile.IsPurchasable():
		if !tile.IsOwned() {
			t.log(models.LogInfo, "%s landed on %s, for sale at $%dM", p.Name, tile.Name, tile.Price)
			return t.setPhase(models.PhaseAction)
		}
		if tile.OwnedBy(p.ID) {
			t.log(models.LogInfo, "%s is visiting their own %s", p.Name, tile.Name)
			return t.setPhase(models.PhaseEnd)
		}
		return t.payRent(p, tile)

	case tile.IsCardTile():
		if depth > maxCardChain {
			return t.setPhase(models.PhaseEnd)
		}
		return t.drawCard(p, tile, depth)

	case tile.Type == models.TileTypeTax:
		return t.payTax(p, tile)
	}

	t.log(models.LogInfo, "%s landed on %s", p.Name, tile.Name)
	return t.setPhase(models.PhaseEnd)
}

func (t *turn) endTurn(p *models.Player) error {
	g := t.g
	if g.TurnPhase != models.PhaseEnd {
		return apperr.InvalidIntent("cannot end the turn during %s", g.TurnPhase)
	}

	g.CurrentCard = nil
	g.Dice = [2]int{1, 1}

	if t.doublesPending(p) {
		t.log(models.LogInfo, "%s rolled doubles and goes again", p.Name)
		return t.setPhase(models.PhaseRoll)
	}
	return t.passTurn()
}

// passTurn hands the turn to the next solvent player who is not sitting
// out. The phase must be END.
func (t *turn) passTurn() error {
	g := t.g
	cur := g.CurrentPlayer()
	if cur.TaxImmunityTurns > 0 {
		if cur.ImmunityFresh {
			cur.ImmunityFresh = false
		} else {
			cur.TaxImmunityTurns--
		}
		if cur.TaxImmunityTurns == 0 {
			cur.Cards = []string{}
		}
	}
	g.ConsecutiveDoubles = 0
	g.CurrentCard = nil

	g.CurrentPlayerIndex = t.nextPlayerIndex()
	if err := t.setPhase(models.PhaseRoll); err != nil {
		return err
	}
	t.log(models.LogInfo, "It is %s's turn", g.CurrentPlayer().Name)
	return nil
}

func (t *turn) nextPlayerIndex() int {
	g := t.g
	n := len(g.Players)
	if len(g.SolventPlayers()) == 0 {
		return g.CurrentPlayerIndex
	}
	for i := 1; ; i++ {
		idx := (g.CurrentPlayerIndex + i) % n
		p := &g.Players[idx]
		if p.Bankrupt {
			continue
		}
		if p.SkipTurns > 0 {
			p.SkipTurns--
			t.log(models.LogInfo, "%s sits this turn out", p.Name)
			continue
		}
		return idx
	}
}
