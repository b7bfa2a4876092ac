// Package engine is the sole mutator of game state. It validates intents,
// drives the turn-phase state machine and resolves movement, rent, cards,
// jail, auctions and bankruptcy. It performs no I/O and is not safe for
// concurrent use on the same game; callers serialize access per game.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/common/uuid"
	"github.com/KirkDiggler/megapoly/internal/dice"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// Config holds the collaborators of an Engine
type Config struct {
	// Rules defaults to DefaultRules when nil
	Rules *Rules

	// Catalog provides the board and decks
	Catalog *catalog.Catalog

	// Roller is the randomness source for dice and draws
	Roller dice.Roller

	// Clock stamps log entries and auction deadlines
	Clock clock.Clock

	// UUIDGenerator stamps cards and log entries
	UUIDGenerator uuid.UUID
}

// Engine applies intents to games
type Engine struct {
	rules   Rules
	catalog *catalog.Catalog
	roller  dice.Roller
	clock   clock.Clock
	uuid    uuid.UUID
}

// New creates an engine
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Catalog == nil {
		return nil, ErrNilCatalog
	}
	if cfg.Roller == nil {
		return nil, ErrNilDiceRoller
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}
	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	rules := DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	return &Engine{
		rules:   rules,
		catalog: cfg.Catalog,
		roller:  cfg.Roller,
		clock:   cfg.Clock,
		uuid:    cfg.UUIDGenerator,
	}, nil
}

// Rules returns the rule set in effect
func (e *Engine) Rules() Rules {
	return e.rules
}

// PlayerSpec describes a player joining a game
type PlayerSpec struct {
	Name string
	// Token is optional; the first free token is assigned when empty
	Token models.Token
}

// Result reports the side effects of an applied intent
type Result struct {
	// Transfers lists every money movement, in order
	Transfers []models.Transfer
}

// NewGame seeds a lobby with an owned copy of the board and the given
// players. The first player hosts.
func (e *Engine) NewGame(id, channelID string, specs []PlayerSpec) (*models.Game, error) {
	if len(specs) < 1 || len(specs) > e.rules.MaxPlayers {
		return nil, apperr.InvalidIntent("a game needs between 1 and %d players", e.rules.MaxPlayers)
	}

	now := e.clock.Now()
	g := &models.Game{
		ID:             id,
		ChannelID:      channelID,
		Players:        make([]models.Player, 0, len(specs)),
		Tiles:          e.catalog.NewTiles(),
		Dice:           [2]int{1, 1},
		ActiveDiceType: models.DiceStandard,
		TurnPhase:      models.PhaseRoll,
		Auction:        models.AuctionState{ActiveBidders: []int{}},
		Log:            []models.LogEntry{},
		Status:         models.GameStatusLobby,
		HostPlayerID:   1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, spec := range specs {
		if _, err := e.seat(g, spec); err != nil {
			return nil, err
		}
	}

	t := e.begin(g)
	t.log(models.LogInfo, "Lobby %s created by %s", id, g.Players[0].Name)
	return g, nil
}

// AddPlayer seats a new player in a lobby
func (e *Engine) AddPlayer(g *models.Game, spec PlayerSpec) (*models.Player, error) {
	if g.Status != models.GameStatusLobby {
		return nil, apperr.InvalidIntent("game %s has already started", g.ID)
	}
	if len(g.Players) >= e.rules.MaxPlayers {
		return nil, apperr.InvalidIntent("game %s is full", g.ID)
	}

	p, err := e.seat(g, spec)
	if err != nil {
		return nil, err
	}

	t := e.begin(g)
	t.log(models.LogInfo, "%s joined the lobby", p.Name)
	g.Version++
	g.UpdatedAt = t.now
	return p, nil
}

func (e *Engine) seat(g *models.Game, spec PlayerSpec) (*models.Player, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, apperr.InvalidIntent("player name is required")
	}

	taken := make(map[models.Token]bool, len(g.Players))
	for _, p := range g.Players {
		taken[p.Token] = true
	}

	token := spec.Token
	switch {
	case token == "":
		for _, candidate := range models.Tokens {
			if !taken[candidate] {
				token = candidate
				break
			}
		}
	case !token.IsValid():
		return nil, apperr.InvalidIntent("unknown token %q", token)
	case taken[token]:
		return nil, apperr.InvalidIntent("token %s is already taken", token)
	}

	g.Players = append(g.Players, models.Player{
		ID:           len(g.Players) + 1,
		Name:         name,
		Token:        token,
		Money:        e.rules.StartingMoney,
		Properties:   []int{},
		Cards:        []string{},
		NextDiceType: models.DiceStandard,
	})
	return &g.Players[len(g.Players)-1], nil
}

// Apply validates and applies one intent from playerID. The intent is
// applied to a working copy and committed only if it succeeds and the
// result passes CheckInvariants, so a rejected intent leaves g untouched.
// An error with code INVARIANT_VIOLATION means the engine produced an
// inconsistent state; the caller must stop mutating the game.
func (e *Engine) Apply(g *models.Game, playerID int, action models.Action) (*Result, error) {
	if g.Status == models.GameStatusFinished {
		return nil, apperr.InvalidIntent("game is finished")
	}

	work := g.Clone()
	actor := work.Player(playerID)
	if actor == nil {
		return nil, apperr.NotFound("player %d is not in game %s", playerID, g.ID)
	}

	t := e.begin(work)
	if err := t.dispatch(actor, action); err != nil {
		return nil, err
	}
	return e.commit(g, t)
}

// ExpireAuction closes an auction whose deadline has passed. The highest
// bidder wins at the current bid if still bidding and solvent; otherwise
// nothing sells.
func (e *Engine) ExpireAuction(g *models.Game) (*Result, error) {
	a := g.Auction
	if !a.IsActive || a.Deadline == nil {
		return nil, apperr.InvalidIntent("no auction deadline is running")
	}
	if e.clock.Now().Before(*a.Deadline) {
		return nil, apperr.InvalidIntent("auction deadline has not passed")
	}

	work := g.Clone()
	t := e.begin(work)
	t.log(models.LogInfo, "Auction time is up")
	var err error
	if leader := work.Auction.HighestBidderID; leader == nil || !work.Auction.IsBidder(*leader) {
		err = t.closeAuctionUnsold()
	} else {
		err = t.finalizeAuction(*work.Auction.HighestBidderID)
	}
	if err != nil {
		return nil, err
	}
	return e.commit(g, t)
}

func (e *Engine) commit(g *models.Game, t *turn) (*Result, error) {
	t.g.Version = g.Version + 1
	t.g.UpdatedAt = t.now
	for i := range t.res.Transfers {
		t.res.Transfers[i].Version = t.g.Version
	}
	if err := CheckInvariants(t.g); err != nil {
		return nil, err
	}
	*g = *t.g
	return t.res, nil
}

func (e *Engine) begin(g *models.Game) *turn {
	return &turn{
		e:   e,
		g:   g,
		res: &Result{},
		now: e.clock.Now(),
	}
}

// turn is the working state of one intent being applied
type turn struct {
	e   *Engine
	g   *models.Game
	res *Result
	now time.Time
}

func (t *turn) dispatch(actor *models.Player, action models.Action) error {
	g := t.g

	switch action.Type {
	case models.ActionStartGame:
		return t.startGame(actor)
	case models.ActionBidAuction:
		if g.Status != models.GameStatusPlaying {
			return apperr.InvalidIntent("game is not in progress")
		}
		return t.bid(actor, action)
	}

	if g.Status != models.GameStatusPlaying {
		return apperr.InvalidIntent("game is not in progress")
	}
	if g.Auction.IsActive {
		return apperr.InvalidIntent("an auction is in progress; only bids and folds are accepted")
	}
	if cur := g.CurrentPlayer(); cur == nil || cur.ID != actor.ID {
		return apperr.InvalidIntent("it is not %s's turn", actor.Name)
	}

	switch action.Type {
	case models.ActionRollDice:
		return t.rollDice(actor)
	case models.ActionEndTurn:
		return t.endTurn(actor)
	case models.ActionBuyProperty:
		return t.buyProperty(actor)
	case models.ActionDeclineProperty, models.ActionStartAuction:
		return t.declineProperty(actor)
	case models.ActionPayBail:
		return t.payBail(actor)
	case models.ActionMortgageProperty:
		return t.mortgage(actor, action.TileID)
	case models.ActionUnmortgageProperty:
		return t.unmortgage(actor, action.TileID)
	case models.ActionUpgradeProperty:
		return t.upgrade(actor, action.TileID)
	}
	return apperr.InvalidIntent("unknown action %q", action.Type)
}

func (t *turn) startGame(actor *models.Player) error {
	g := t.g
	if g.Status != models.GameStatusLobby {
		return apperr.InvalidIntent("game has already started")
	}
	if actor.ID != g.HostPlayerID {
		return apperr.InvalidIntent("only the host can start the game")
	}
	if len(g.Players) < t.e.rules.MinPlayers {
		return apperr.InvalidIntent("at least %d players are needed to start", t.e.rules.MinPlayers)
	}

	g.Status = models.GameStatusPlaying
	g.CurrentPlayerIndex = 0
	g.TurnPhase = models.PhaseRoll
	t.log(models.LogSuccess, "The game has started! %s rolls first", g.Players[0].Name)
	return nil
}

func (t *turn) log(kind models.LogType, format string, args ...any) {
	entry := models.LogEntry{
		ID:        t.e.uuid.NewUUID(),
		Text:      fmt.Sprintf(format, args...),
		Type:      kind,
		Timestamp: t.now,
	}
	log := append([]models.LogEntry{entry}, t.g.Log...)
	if len(log) > t.e.rules.LogCapacity {
		log = log[:t.e.rules.LogCapacity]
	}
	t.g.Log = log
}

// transfer moves amount between two parties; nil is the bank
func (t *turn) transfer(from, to *models.Player, amount int, reason models.TransferReason, tileID *int) {
	if amount <= 0 {
		return
	}
	rec := models.Transfer{
		GameID:    t.g.ID,
		Amount:    amount,
		Reason:    reason,
		Timestamp: t.now,
	}
	if from != nil {
		from.Money -= amount
		rec.FromPlayerID = models.IntPtr(from.ID)
	}
	if to != nil {
		to.Money += amount
		rec.ToPlayerID = models.IntPtr(to.ID)
	}
	if tileID != nil {
		rec.TileID = models.IntPtr(*tileID)
	}
	t.res.Transfers = append(t.res.Transfers, rec)
}
