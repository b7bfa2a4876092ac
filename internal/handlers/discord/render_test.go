package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

func playingGame() *models.Game {
	return &models.Game{
		ID:     "ABCDEF",
		Status: models.GameStatusPlaying,
		Players: []models.Player{
			{ID: 1, Name: "Alice", Token: models.TokenJet, Money: 1400, Position: 3, Properties: []int{3}},
			{ID: 2, Name: "Bob", Token: models.TokenYacht, Money: 1500},
		},
		Tiles: []models.Tile{
			{ID: 0, Name: "VIA!", Type: models.TileTypeStart},
			{ID: 1, Name: "Vicolo Corto", Type: models.TileTypeProperty, Price: 60},
			{ID: 2, Name: "Truffa", Type: models.TileTypeScam},
			{ID: 3, Name: "Vicolo Stretto", Type: models.TileTypeProperty, Price: 60, OwnerID: models.IntPtr(1)},
		},
		TurnPhase:    models.PhaseRoll,
		HostPlayerID: 1,
		Version:      7,
	}
}

func buttonIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	for _, c := range components {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, b := range row.Components {
			if btn, ok := b.(discordgo.Button); ok {
				ids = append(ids, btn.CustomID)
			}
		}
	}
	return ids
}

func TestComponentsFor(t *testing.T) {
	lobby := playingGame()
	lobby.Status = models.GameStatusLobby

	jailed := playingGame()
	jailed.Players[0].IsJailed = true

	action := playingGame()
	action.TurnPhase = models.PhaseAction

	end := playingGame()
	end.TurnPhase = models.PhaseEnd

	auction := playingGame()
	auction.TurnPhase = models.PhaseAction
	auction.Auction = models.AuctionState{IsActive: true, PropertyID: models.IntPtr(1), CurrentBid: 60}

	finished := playingGame()
	finished.Status = models.GameStatusFinished

	moving := playingGame()
	moving.TurnPhase = models.PhaseMoving

	tests := []struct {
		name string
		game *models.Game
		want []string
	}{
		{"lobby", lobby, []string{ButtonJoin, ButtonStart}},
		{"roll", playingGame(), []string{ButtonRoll}},
		{"jailed roll offers bail", jailed, []string{ButtonRoll, ButtonPayBail}},
		{"purchase decision", action, []string{ButtonBuy, ButtonDecline}},
		{"end of turn", end, []string{ButtonEndTurn}},
		{"auction wins over phase", auction, []string{ButtonBid10, ButtonBid50, ButtonFold}},
		{"finished", finished, nil},
		{"moving has nothing to click", moving, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buttonIDs(componentsFor(tt.game)))
		})
	}
}

func TestActionForButton(t *testing.T) {
	g := playingGame()
	g.Auction = models.AuctionState{IsActive: true, PropertyID: models.IntPtr(1), CurrentBid: 60}

	tests := []struct {
		customID string
		want     models.Action
	}{
		{ButtonStart, models.Action{Type: models.ActionStartGame}},
		{ButtonRoll, models.Action{Type: models.ActionRollDice}},
		{ButtonPayBail, models.Action{Type: models.ActionPayBail}},
		{ButtonBuy, models.Action{Type: models.ActionBuyProperty}},
		{ButtonDecline, models.Action{Type: models.ActionDeclineProperty}},
		{ButtonEndTurn, models.Action{Type: models.ActionEndTurn}},
		{ButtonBid10, models.Action{Type: models.ActionBidAuction, Amount: 70}},
		{ButtonBid50, models.Action{Type: models.ActionBidAuction, Amount: 110}},
		{ButtonFold, models.Action{Type: models.ActionBidAuction, Fold: true}},
	}
	for _, tt := range tests {
		t.Run(tt.customID, func(t *testing.T) {
			got, err := actionForButton(tt.customID, g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := actionForButton("mystery", g)
	assert.Equal(t, apperr.CodeInvalidIntent, apperr.CodeOf(err))
}

func TestRenderGame(t *testing.T) {
	g := playingGame()
	g.Dice = [2]int{3, 5}
	g.Log = []models.LogEntry{
		{Text: "Alice bought Vicolo Stretto"},
		{Text: "Alice rolled 8"},
	}

	embed := renderGame(g, "The market is open.")

	assert.Equal(t, "Megapoly ABCDEF", embed.Title)
	assert.Equal(t, "v7", embed.Footer.Text)
	assert.Contains(t, embed.Description, "**The market is open.**")
	assert.Contains(t, embed.Description, "Alice to play (roll)")
	assert.Contains(t, embed.Description, "Last roll: 3 + 5")

	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "▶ Alice (JET)", embed.Fields[0].Name)
	assert.Equal(t, "$1400M\nVicolo Stretto\n1 properties", embed.Fields[0].Value)
	assert.Equal(t, "Bob (YACHT)", embed.Fields[1].Name)
	assert.Equal(t, "Log", embed.Fields[2].Name)
	assert.Equal(t, "Alice bought Vicolo Stretto\nAlice rolled 8", embed.Fields[2].Value)
}

func TestRenderGameAuctionAndFinish(t *testing.T) {
	g := playingGame()
	g.Auction = models.AuctionState{
		IsActive:        true,
		PropertyID:      models.IntPtr(1),
		CurrentBid:      80,
		HighestBidderID: models.IntPtr(2),
	}
	embed := renderGame(g, "")
	last := embed.Fields[len(embed.Fields)-1]
	assert.Equal(t, "Auction", last.Name)
	assert.Equal(t, "Vicolo Corto, $80M by Bob", last.Value)

	g.Auction = models.AuctionState{}
	g.Status = models.GameStatusFinished
	g.WinnerID = models.IntPtr(1)
	g.Players[1].Bankrupt = true
	embed = renderGame(g, "")
	assert.Equal(t, "Alice wins.", embed.Description)
	assert.Equal(t, colorNeutral, embed.Color)
	assert.Equal(t, "Bankrupt", embed.Fields[1].Value)
}
