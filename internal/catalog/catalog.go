// Package catalog holds the read-only board and deck templates that every
// game instance copies at creation.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/megapoly/internal/common/uuid"
	"github.com/KirkDiggler/megapoly/internal/dice"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// BoardSize is the number of ring positions
const BoardSize = 60

// Fixed corner positions
const (
	StartPosition       = 0
	JailPosition        = 15
	FreeParkingPosition = 30
	GoToJailPosition    = 45
)

var fixedTiles = map[int]models.TileType{
	StartPosition:       models.TileTypeStart,
	JailPosition:        models.TileTypeJail,
	FreeParkingPosition: models.TileTypeFreeParking,
	GoToJailPosition:    models.TileTypeGoToJail,
}

var deckForTile = map[models.TileType]models.DeckType{
	models.TileTypeChance:         models.DeckChance,
	models.TileTypeCommunityChest: models.DeckCommunity,
	models.TileTypeScam:           models.DeckScam,
	models.TileTypeMegaWealth:     models.DeckMegaWealth,
}

//go:embed data/board.yaml
var boardYAML []byte

//go:embed data/decks.yaml
var decksYAML []byte

type tileDef struct {
	ID    int             `yaml:"id"`
	Name  string          `yaml:"name"`
	Type  models.TileType `yaml:"type"`
	Price int             `yaml:"price"`
	Rent  []int           `yaml:"rent"`
	Color string          `yaml:"color"`
}

type cardDef struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Action      models.CardAction `yaml:"action"`
	Value       int               `yaml:"value"`
	DiceType    models.DiceType   `yaml:"diceType"`
	TargetTypes []models.TileType `yaml:"targetTypes"`
	SkipTurns   int               `yaml:"skipTurns"`
}

type boardFile struct {
	Tiles []tileDef `yaml:"tiles"`
}

type decksFile struct {
	Decks map[models.DeckType][]cardDef `yaml:"decks"`
}

// Catalog is the validated board and deck templates
type Catalog struct {
	tiles []models.Tile
	decks map[models.DeckType][]cardDef
}

// Load parses and validates the embedded catalogs
func Load() (*Catalog, error) {
	return Parse(boardYAML, decksYAML)
}

// Parse builds a catalog from raw board and deck YAML
func Parse(board, decks []byte) (*Catalog, error) {
	var bf boardFile
	if err := yaml.Unmarshal(board, &bf); err != nil {
		return nil, fmt.Errorf("board.yaml: %w", err)
	}
	var df decksFile
	if err := yaml.Unmarshal(decks, &df); err != nil {
		return nil, fmt.Errorf("decks.yaml: %w", err)
	}

	c := &Catalog{
		tiles: make([]models.Tile, 0, len(bf.Tiles)),
		decks: df.Decks,
	}
	for _, d := range bf.Tiles {
		c.tiles = append(c.tiles, models.Tile{
			ID:    d.ID,
			Name:  d.Name,
			Type:  d.Type,
			Price: d.Price,
			Rent:  d.Rent,
			Color: d.Color,
		})
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.tiles) != BoardSize {
		return fmt.Errorf("board has %d tiles, want %d", len(c.tiles), BoardSize)
	}
	for i, t := range c.tiles {
		if t.ID != i {
			return fmt.Errorf("tile at index %d has id %d", i, t.ID)
		}
		if want, ok := fixedTiles[i]; ok && t.Type != want {
			return fmt.Errorf("tile %d must be %s, got %s", i, want, t.Type)
		}
		if t.Type == "" {
			return fmt.Errorf("tile %d has no type", i)
		}
		if t.Price < 0 {
			return fmt.Errorf("tile %d has negative price", i)
		}
		if t.IsCardTile() {
			if _, ok := c.decks[deckForTile[t.Type]]; !ok {
				return fmt.Errorf("tile %d draws from missing deck %s", i, deckForTile[t.Type])
			}
		}
	}
	for _, deck := range []models.DeckType{models.DeckChance, models.DeckCommunity, models.DeckScam, models.DeckMegaWealth} {
		cards := c.decks[deck]
		if len(cards) == 0 {
			return fmt.Errorf("deck %s is empty", deck)
		}
		for i, card := range cards {
			if !card.Action.IsValid() {
				return fmt.Errorf("deck %s card %d has unknown action %q", deck, i, card.Action)
			}
			if card.Action == models.CardActionMove && (card.Value < 0 || card.Value >= BoardSize) {
				return fmt.Errorf("deck %s card %d moves off the board", deck, i)
			}
		}
	}
	return nil
}

// NewTiles instantiates an owned copy of the board for one game
func (c *Catalog) NewTiles() []models.Tile {
	tiles := make([]models.Tile, len(c.tiles))
	for i, t := range c.tiles {
		tiles[i] = t.Clone()
	}
	return tiles
}

// DeckFor returns the deck drawn on a card tile
func DeckFor(t models.TileType) (models.DeckType, bool) {
	d, ok := deckForTile[t]
	return d, ok
}

// DeckSize returns the number of templates in a deck
func (c *Catalog) DeckSize(deck models.DeckType) int {
	return len(c.decks[deck])
}

// Draw picks a card uniformly at random, with replacement, and stamps it
// with a fresh ID.
func (c *Catalog) Draw(deck models.DeckType, roller dice.Roller, ids uuid.UUID) (*models.Card, error) {
	cards := c.decks[deck]
	if len(cards) == 0 {
		return nil, errors.New("unknown deck " + string(deck))
	}
	def := cards[roller.Intn(len(cards))]
	card := &models.Card{
		ID:          ids.NewUUID(),
		Deck:        deck,
		Title:       def.Title,
		Description: def.Description,
		Action:      def.Action,
		Value:       def.Value,
		DiceType:    def.DiceType,
		SkipTurns:   def.SkipTurns,
	}
	if def.TargetTypes != nil {
		card.TargetTypes = append([]models.TileType(nil), def.TargetTypes...)
	}
	return card, nil
}
