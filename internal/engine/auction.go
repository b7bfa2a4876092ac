package engine

import (
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// startAuction opens bidding on tile at half its price. Every solvent
// player may bid, regardless of turn order, until the auction closes.
func (t *turn) startAuction(tile *models.Tile) error {
	open := tile.Price * t.e.rules.AuctionOpenPercent / 100
	if open <= 0 {
		open = t.e.rules.AuctionMinOpen
	}

	t.g.Auction = models.AuctionState{
		IsActive:      true,
		PropertyID:    models.IntPtr(tile.ID),
		CurrentBid:    open,
		ActiveBidders: t.g.SolventPlayers(),
	}
	t.armDeadline()
	t.log(models.LogInfo, "Auction for %s opens at $%dM", tile.Name, open)
	return nil
}

func (t *turn) armDeadline() {
	if t.e.rules.AuctionTimeout <= 0 {
		return
	}
	deadline := t.now.Add(t.e.rules.AuctionTimeout)
	t.g.Auction.Deadline = &deadline
}

func (t *turn) bid(p *models.Player, action models.Action) error {
	a := &t.g.Auction
	if !a.IsActive {
		return apperr.InvalidIntent("no auction is in progress")
	}
	if !a.IsBidder(p.ID) {
		return apperr.InvalidIntent("%s is not bidding in this auction", p.Name)
	}
	if action.Fold {
		return t.fold(p)
	}
	if action.Amount <= a.CurrentBid {
		return apperr.InvalidIntent("bid must exceed $%dM", a.CurrentBid)
	}
	if p.Money < action.Amount {
		return apperr.InsufficientFunds("%s has only $%dM", p.Name, p.Money)
	}

	a.CurrentBid = action.Amount
	a.HighestBidderID = models.IntPtr(p.ID)
	t.armDeadline()
	t.log(models.LogInfo, "%s bids $%dM", p.Name, action.Amount)
	return nil
}

func (t *turn) fold(p *models.Player) error {
	a := &t.g.Auction
	a.RemoveBidder(p.ID)
	t.log(models.LogInfo, "%s folds", p.Name)

	switch len(a.ActiveBidders) {
	case 0:
		return t.closeAuctionUnsold()
	case 1:
		return t.finalizeAuction(a.ActiveBidders[0])
	}
	return nil
}

// finalizeAuction sells the tile to winnerID at the current bid. Funds are
// checked again; a winner who can no longer pay voids the sale.
func (t *turn) finalizeAuction(winnerID int) error {
	a := t.g.Auction
	winner := t.g.Player(winnerID)
	tile := t.g.Tile(*a.PropertyID)
	if winner == nil || tile == nil {
		return apperr.Newf(apperr.CodeInvariantViolation, "auction references unknown player %d or tile", winnerID)
	}

	if winner.Money < a.CurrentBid {
		t.log(models.LogDanger, "%s cannot cover $%dM; %s stays unsold", winner.Name, a.CurrentBid, tile.Name)
		return t.closeAuction()
	}

	t.transfer(winner, nil, a.CurrentBid, models.TransferReasonAuction, &tile.ID)
	t.assign(tile, winner)
	t.log(models.LogSuccess, "%s won the auction for %s at $%dM", winner.Name, tile.Name, a.CurrentBid)
	return t.closeAuction()
}

func (t *turn) closeAuctionUnsold() error {
	if a := t.g.Auction; a.PropertyID != nil {
		if tile := t.g.Tile(*a.PropertyID); tile != nil {
			t.log(models.LogInfo, "Nobody bought %s", tile.Name)
		}
	}
	return t.closeAuction()
}

// closeAuction ends bidding and returns control to the current player's
// END phase.
func (t *turn) closeAuction() error {
	t.g.Auction = models.AuctionState{ActiveBidders: []int{}}
	return t.setPhase(models.PhaseEnd)
}
