package engine

import (
	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

func violation(format string, args ...any) error {
	return apperr.Newf(apperr.CodeInvariantViolation, format, args...)
}

// CheckInvariants verifies the consistency rules every committed state
// must satisfy.
func CheckInvariants(g *models.Game) error {
	if len(g.Tiles) != catalog.BoardSize {
		return violation("board has %d tiles", len(g.Tiles))
	}
	if len(g.Players) == 0 {
		return violation("game has no players")
	}
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return violation("current player index %d out of range", g.CurrentPlayerIndex)
	}
	if g.TurnPhase == models.PhaseMoving {
		return violation("movement left unresolved")
	}
	if _, ok := transitions[g.TurnPhase]; !ok {
		return violation("unknown turn phase %q", g.TurnPhase)
	}
	for _, d := range g.Dice {
		if d < 1 || d > 6 {
			return violation("die value %d out of range", d)
		}
	}

	byID := make(map[int]*models.Player, len(g.Players))
	for i := range g.Players {
		p := &g.Players[i]
		if p.ID != i+1 {
			return violation("player at index %d has id %d", i, p.ID)
		}
		byID[p.ID] = p
		if p.Position < 0 || p.Position >= catalog.BoardSize {
			return violation("player %d at position %d", p.ID, p.Position)
		}
		if p.Bankrupt && len(p.Properties) > 0 {
			return violation("bankrupt player %d still owns tiles", p.ID)
		}
		seen := make(map[int]bool, len(p.Properties))
		for _, id := range p.Properties {
			if seen[id] {
				return violation("player %d lists tile %d twice", p.ID, id)
			}
			seen[id] = true
			tile := g.Tile(id)
			if tile == nil || !tile.OwnedBy(p.ID) {
				return violation("player %d lists tile %d it does not own", p.ID, id)
			}
		}
	}

	for i := range g.Tiles {
		tile := &g.Tiles[i]
		if tile.ID != i {
			return violation("tile at index %d has id %d", i, tile.ID)
		}
		if tile.OwnerID == nil {
			continue
		}
		owner, ok := byID[*tile.OwnerID]
		if !ok {
			return violation("tile %d owned by unknown player %d", i, *tile.OwnerID)
		}
		if !owner.Owns(tile.ID) {
			return violation("tile %d owner %d does not list it", i, owner.ID)
		}
	}

	if g.Status == models.GameStatusPlaying && g.CurrentPlayer().Bankrupt {
		return violation("bankrupt player %d holds the turn", g.CurrentPlayer().ID)
	}

	a := g.Auction
	if a.IsActive {
		if a.PropertyID == nil {
			return violation("active auction without a tile")
		}
		tile := g.Tile(*a.PropertyID)
		if tile == nil || tile.IsOwned() {
			return violation("auction on tile %d which is missing or owned", *a.PropertyID)
		}
		for _, id := range a.ActiveBidders {
			p, ok := byID[id]
			if !ok || p.Bankrupt {
				return violation("auction bidder %d is not a solvent player", id)
			}
		}
		if a.HighestBidderID != nil {
			if _, ok := byID[*a.HighestBidderID]; !ok {
				return violation("highest bidder %d is not a player", *a.HighestBidderID)
			}
		}
	}
	return nil
}
