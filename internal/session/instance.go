package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/engine"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// Instance owns one live game. All reads and writes of the game go through
// a single goroutine, so intents are applied one at a time in arrival
// order and no caller ever observes a half-applied intent.
type Instance struct {
	code      string
	channelID string

	engine *engine.Engine
	clock  clock.Clock
	log    *zap.SugaredLogger
	hooks  func() []Hook

	inbox chan func()
	stop  chan struct{}
	done  chan struct{}

	// owned by the run goroutine
	game    *models.Game
	halted  bool
	subs    map[int]chan *models.Game
	nextSub int
	timer   *time.Timer
}

func newInstance(g *models.Game, e *engine.Engine, c clock.Clock, log *zap.SugaredLogger, hooks func() []Hook) *Instance {
	inst := &Instance{
		code:      g.ID,
		channelID: g.ChannelID,
		engine:    e,
		clock:     c,
		log:       log.With("game_id", g.ID),
		hooks:     hooks,
		inbox:     make(chan func()),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		game:      g,
		subs:      make(map[int]chan *models.Game),
	}
	go inst.run()
	return inst
}

// Code returns the game code
func (i *Instance) Code() string {
	return i.code
}

// ChannelID returns the chat channel the game was created from, if any
func (i *Instance) ChannelID() string {
	return i.channelID
}

func (i *Instance) run() {
	defer close(i.done)

	i.armTimer()
	for {
		var expired <-chan time.Time
		if i.timer != nil {
			expired = i.timer.C
		}

		select {
		case <-i.stop:
			i.shutdown()
			return
		case fn := <-i.inbox:
			fn()
		case <-expired:
			i.timer = nil
			i.expireAuction()
		}
	}
}

func (i *Instance) shutdown() {
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	for id, ch := range i.subs {
		close(ch)
		delete(i.subs, id)
	}
}

// do runs fn on the actor goroutine and waits for it to finish
func (i *Instance) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case i.inbox <- func() { defer close(finished); fn() }:
	case <-i.done:
		return apperr.NotFound("game %s is closed", i.code)
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// close stops the actor and waits for it to exit
func (i *Instance) close() {
	select {
	case <-i.done:
		return
	default:
	}
	select {
	case i.stop <- struct{}{}:
	case <-i.done:
	}
	<-i.done
}

// Apply submits one intent. On success it returns the committed snapshot
// and the money movements the intent produced.
func (i *Instance) Apply(ctx context.Context, playerID int, action models.Action) (*models.Game, *engine.Result, error) {
	var (
		snap *models.Game
		res  *engine.Result
		err  error
	)
	if doErr := i.do(ctx, func() {
		snap, res, err = i.apply(playerID, action)
	}); doErr != nil {
		return nil, nil, doErr
	}
	return snap, res, err
}

func (i *Instance) apply(playerID int, action models.Action) (*models.Game, *engine.Result, error) {
	if i.halted {
		return nil, nil, apperr.Newf(apperr.CodeGameHalted, "game %s is halted", i.code)
	}

	res, err := i.engine.Apply(i.game, playerID, action)
	if err != nil {
		i.reject(err, "player_id", playerID, "action", action.Type)
		return nil, nil, err
	}

	i.log.Debugw("Applied intent",
		"player_id", playerID,
		"action", action.Type,
		"version", i.game.Version,
	)

	snap := i.game.Clone()
	i.publish(Event{
		Kind:      EventApplied,
		Game:      snap,
		PlayerID:  playerID,
		Action:    &action,
		Transfers: res.Transfers,
	})
	i.armTimer()
	return snap, res, nil
}

// Join seats a new player in the lobby
func (i *Instance) Join(ctx context.Context, spec engine.PlayerSpec) (*models.Player, *models.Game, error) {
	var (
		player *models.Player
		snap   *models.Game
		err    error
	)
	if doErr := i.do(ctx, func() {
		if i.halted {
			err = apperr.Newf(apperr.CodeGameHalted, "game %s is halted", i.code)
			return
		}
		var p *models.Player
		p, err = i.engine.AddPlayer(i.game, spec)
		if err != nil {
			i.reject(err, "name", spec.Name)
			return
		}
		joined := p.Clone()
		player = &joined
		snap = i.game.Clone()
		i.publish(Event{Kind: EventJoined, Game: snap, PlayerID: p.ID})
	}); doErr != nil {
		return nil, nil, doErr
	}
	return player, snap, err
}

// Snapshot returns a copy of the current state
func (i *Instance) Snapshot(ctx context.Context) (*models.Game, error) {
	var snap *models.Game
	if err := i.do(ctx, func() {
		snap = i.game.Clone()
	}); err != nil {
		return nil, err
	}
	return snap, nil
}

// Halted reports whether an invariant violation stopped the game
func (i *Instance) Halted(ctx context.Context) (bool, error) {
	var halted bool
	if err := i.do(ctx, func() {
		halted = i.halted
	}); err != nil {
		return false, err
	}
	return halted, nil
}

// Subscribe returns a channel that receives the current snapshot and then
// every committed one. A subscriber that falls behind loses intermediate
// snapshots but always ends up with the latest. The channel is closed by
// cancel or when the game is destroyed.
func (i *Instance) Subscribe(ctx context.Context, buffer int) (<-chan *models.Game, func(), error) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *models.Game, buffer)

	var id int
	if err := i.do(ctx, func() {
		i.nextSub++
		id = i.nextSub
		i.subs[id] = ch
		sendLatest(ch, i.game.Clone())
	}); err != nil {
		return nil, nil, err
	}

	cancel := func() {
		_ = i.do(context.Background(), func() {
			if sub, ok := i.subs[id]; ok {
				close(sub)
				delete(i.subs, id)
			}
		})
	}
	return ch, cancel, nil
}

// publish runs hooks and fans the snapshot out to subscribers
func (i *Instance) publish(ev Event) {
	for _, hook := range i.hooks() {
		hook(ev)
	}
	for _, ch := range i.subs {
		sendLatest(ch, ev.Game)
	}
}

func (i *Instance) reject(err error, keysAndValues ...any) {
	if errors.Is(err, apperr.ErrInvariantViolation) {
		i.halted = true
		i.log.Errorw("Invariant violation, halting game",
			append(keysAndValues, "error", err)...,
		)
		return
	}
	i.log.Infow("Rejected intent",
		append(keysAndValues, "code", apperr.CodeOf(err), "reason", apperr.ReasonOf(err))...,
	)
}

// armTimer follows the auction deadline of the current state
func (i *Instance) armTimer() {
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	a := i.game.Auction
	if i.halted || !a.IsActive || a.Deadline == nil {
		return
	}
	wait := a.Deadline.Sub(i.clock.Now())
	if wait < 0 {
		wait = 0
	}
	i.timer = time.NewTimer(wait)
}

func (i *Instance) expireAuction() {
	if i.halted {
		return
	}

	res, err := i.engine.ExpireAuction(i.game)
	if err != nil {
		i.reject(err, "action", "auction_expiry")
		if !i.halted {
			i.armTimer()
		}
		return
	}

	i.log.Debugw("Auction expired", "version", i.game.Version)
	i.publish(Event{
		Kind:      EventAuctionExpired,
		Game:      i.game.Clone(),
		Transfers: res.Transfers,
	})
	i.armTimer()
}

// sendLatest delivers snap without blocking, replacing a stale queued
// snapshot when the subscriber's buffer is full.
func sendLatest(ch chan *models.Game, snap *models.Game) {
	select {
	case ch <- snap:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
