package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/handlers/ws"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/schemas"
)

func decode(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var doc any
	require.NoError(t, json.Unmarshal(b, &doc))
	return doc
}

func TestSchemas_ValidateFrames(t *testing.T) {
	snapshot, err := schemas.Compile(schemas.Snapshot)
	require.NoError(t, err)
	intent, err := schemas.Compile(schemas.Intent)
	require.NoError(t, err)
	errorFrame, err := schemas.Compile(schemas.Error)
	require.NoError(t, err)

	g := &models.Game{
		ID: "ABCDEF",
		Players: []models.Player{
			{ID: 1, Name: "Alice", Token: models.TokenJet, Money: 1500, Properties: []int{}},
			{ID: 2, Name: "Bob", Token: models.TokenYacht, Money: 1440, Position: 8, Properties: []int{8}},
		},
		Tiles: []models.Tile{
			{ID: 0, Name: "VIA!", Type: models.TileTypeStart},
			{ID: 8, Name: "Bastioni", Type: models.TileTypeProperty, Price: 100, OwnerID: models.IntPtr(2)},
		},
		Dice:      [2]int{3, 5},
		TurnPhase: models.PhaseEnd,
		Status:    models.GameStatusPlaying,
		Auction:   models.AuctionState{CurrentBid: 0},
		Version:   3,
	}
	assert.NoError(t, snapshot.Validate(decode(t, ws.ServerMessage{Type: ws.TypeSnapshot, Game: g})))

	assert.NoError(t, intent.Validate(decode(t, ws.ClientMessage{
		Type:   ws.TypeIntent,
		Action: &models.Action{Type: models.ActionMortgageProperty, TileID: models.IntPtr(8)},
	})))

	assert.NoError(t, errorFrame.Validate(decode(t, ws.ServerMessage{
		Type:   ws.TypeError,
		Code:   apperr.CodeInsufficientFunds,
		Reason: "need $100M",
	})))
}

func TestSchemas_RejectBadIntents(t *testing.T) {
	intent, err := schemas.Compile(schemas.Intent)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"wrong frame type", `{"type":"hello","action":{"type":"ROLL_DICE"}}`},
		{"missing action", `{"type":"intent"}`},
		{"unknown action", `{"type":"intent","action":{"type":"TRADE"}}`},
		{"negative bid", `{"type":"intent","action":{"type":"BID_AUCTION","amount":-5}}`},
		{"tile off the board", `{"type":"intent","action":{"type":"UPGRADE_PROPERTY","tileId":60}}`},
		{"unknown field", `{"type":"intent","action":{"type":"ROLL_DICE","cheat":true}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc any
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &doc))
			err := intent.Validate(doc)
			require.Error(t, err)
			assert.NotEmpty(t, schemas.Reason(err))
		})
	}
}

func TestCompileUnknownSchema(t *testing.T) {
	_, err := schemas.Compile("nope.schema.json")
	assert.Error(t, err)
}
