package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/common/uuid"
	"github.com/KirkDiggler/megapoly/internal/dice"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// nextMove is a simple legal policy used to drive seeded games
func nextMove(g *models.Game) (int, models.Action) {
	if a := g.Auction; a.IsActive {
		bidder := g.Player(a.ActiveBidders[0])
		if a.HighestBidderID == nil && bidder.Money > a.CurrentBid+10 {
			return bidder.ID, models.Action{Type: models.ActionBidAuction, Amount: a.CurrentBid + 10}
		}
		return bidder.ID, models.Action{Type: models.ActionBidAuction, Fold: true}
	}

	cur := g.CurrentPlayer()
	switch g.TurnPhase {
	case models.PhaseAction:
		if tile := g.Tile(cur.Position); cur.Money >= tile.Price+200 {
			return cur.ID, models.Action{Type: models.ActionBuyProperty}
		}
		return cur.ID, models.Action{Type: models.ActionDeclineProperty}
	case models.PhaseEnd:
		return cur.ID, models.Action{Type: models.ActionEndTurn}
	}
	return cur.ID, models.Action{Type: models.ActionRollDice}
}

func TestSeededGamesKeepInvariants(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	for seed := int64(1); seed <= 25; seed++ {
		e, err := New(&Config{
			Catalog:       cat,
			Roller:        dice.New(&dice.Config{Seed: seed}),
			Clock:         clock.New(),
			UUIDGenerator: uuid.New(),
		})
		require.NoError(t, err)

		g, err := e.NewGame("SEED", "", []PlayerSpec{{Name: "A"}, {Name: "B"}, {Name: "C"}})
		require.NoError(t, err)
		_, err = e.Apply(g, 1, models.Action{Type: models.ActionStartGame})
		require.NoError(t, err)

		for step := 0; step < 800 && g.Status == models.GameStatusPlaying; step++ {
			biddersBefore := len(g.Auction.ActiveBidders)
			auctionBefore := g.Auction.IsActive
			version := g.Version

			playerID, action := nextMove(g)
			_, err := e.Apply(g, playerID, action)
			require.NoError(t, err, "seed %d step %d action %s", seed, step, action.Type)
			require.NoError(t, CheckInvariants(g), "seed %d step %d", seed, step)
			require.Equal(t, version+1, g.Version)

			for _, d := range g.Dice {
				require.True(t, d >= 1 && d <= 6)
			}
			if auctionBefore && g.Auction.IsActive {
				require.LessOrEqual(t, len(g.Auction.ActiveBidders), biddersBefore, "bidders never grow")
			}
			require.LessOrEqual(t, len(g.Log), e.Rules().LogCapacity)
		}
	}
}
