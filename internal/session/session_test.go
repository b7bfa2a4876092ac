package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/common/uuid"
	uuidMocks "github.com/KirkDiggler/megapoly/internal/common/uuid/mocks"
	diceMocks "github.com/KirkDiggler/megapoly/internal/dice/mocks"
	"github.com/KirkDiggler/megapoly/internal/engine"
	"github.com/KirkDiggler/megapoly/internal/models"
)

type SessionTestSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	roller   *diceMocks.MockRoller
	codes    *uuidMocks.MockUUID
	catalog  *catalog.Catalog
	registry *Registry

	mu     sync.Mutex
	events []Event
}

func (s *SessionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.roller = diceMocks.NewMockRoller(s.ctrl)
	s.codes = uuidMocks.NewMockUUID(s.ctrl)
	s.events = nil

	cat, err := catalog.Load()
	s.Require().NoError(err)
	s.catalog = cat
	s.registry = s.newRegistry(engine.DefaultRules())
}

func (s *SessionTestSuite) TearDownTest() {
	s.registry.Close()
	s.ctrl.Finish()
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) newRegistry(rules engine.Rules) *Registry {
	e, err := engine.New(&engine.Config{
		Rules:         &rules,
		Catalog:       s.catalog,
		Roller:        s.roller,
		Clock:         clock.New(),
		UUIDGenerator: uuid.New(),
	})
	s.Require().NoError(err)

	r, err := NewRegistry(&Config{
		Engine:        e,
		Clock:         clock.New(),
		UUIDGenerator: s.codes,
		Hooks:         []Hook{s.record},
	})
	s.Require().NoError(err)
	return r
}

func (s *SessionTestSuite) record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *SessionTestSuite) recorded() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// startedAuction creates a started game with n players where player 1
// declined tile 8, leaving an auction open at $50M.
func (s *SessionTestSuite) startedAuction(n int) *Instance {
	specs := make([]engine.PlayerSpec, n)
	for i := range specs {
		specs[i] = engine.PlayerSpec{Name: string(rune('A' + i))}
	}
	s.codes.EXPECT().NewUUID().Return("abcdef12-3456-7890-abcd-ef1234567890")
	inst, _, err := s.registry.Create(s.ctx, specs, "chan-1")
	s.Require().NoError(err)

	_, _, err = inst.Apply(s.ctx, 1, models.Action{Type: models.ActionStartGame})
	s.Require().NoError(err)

	gomock.InOrder(
		s.roller.EXPECT().Roll(6).Return(3),
		s.roller.EXPECT().Roll(6).Return(5),
	)
	_, _, err = inst.Apply(s.ctx, 1, models.Action{Type: models.ActionRollDice})
	s.Require().NoError(err)
	snap, _, err := inst.Apply(s.ctx, 1, models.Action{Type: models.ActionDeclineProperty})
	s.Require().NoError(err)
	s.Require().True(snap.Auction.IsActive)
	return inst
}

func (s *SessionTestSuite) TestNewRegistryRequiresCollaborators() {
	_, err := NewRegistry(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = NewRegistry(&Config{})
	s.ErrorIs(err, ErrNilEngine)
}

func (s *SessionTestSuite) TestCreateAssignsShortCodeAndRunsHooks() {
	s.codes.EXPECT().NewUUID().Return("9f3a2b1c-0000-0000-0000-000000000000")

	inst, snap, err := s.registry.Create(s.ctx, []engine.PlayerSpec{{Name: "Alice"}}, "chan-1")
	s.Require().NoError(err)

	s.Equal("9F3A2B", inst.Code())
	s.Equal("9F3A2B", snap.ID)
	s.Equal("chan-1", inst.ChannelID())
	s.Equal(models.GameStatusLobby, snap.Status)

	events := s.recorded()
	s.Require().Len(events, 1)
	s.Equal(EventCreated, events[0].Kind)
	s.Equal("9F3A2B", events[0].Game.ID)

	found, err := s.registry.Lookup("9F3A2B")
	s.Require().NoError(err)
	s.Same(inst, found)
}

func (s *SessionTestSuite) TestCreateRetriesOnCollision() {
	gomock.InOrder(
		s.codes.EXPECT().NewUUID().Return("aaaaaa00-0000-0000-0000-000000000000"),
		s.codes.EXPECT().NewUUID().Return("aaaaaa00-0000-0000-0000-000000000001"),
		s.codes.EXPECT().NewUUID().Return("bbbbbb00-0000-0000-0000-000000000000"),
	)

	first, _, err := s.registry.Create(s.ctx, []engine.PlayerSpec{{Name: "A"}}, "")
	s.Require().NoError(err)
	second, _, err := s.registry.Create(s.ctx, []engine.PlayerSpec{{Name: "B"}}, "")
	s.Require().NoError(err)

	s.Equal("AAAAAA", first.Code())
	s.Equal("BBBBBB", second.Code())
	s.Len(s.registry.List(), 2)
}

func (s *SessionTestSuite) TestCreateGivesUpAfterAttempts() {
	s.codes.EXPECT().NewUUID().Return("cccccc00-0000-0000-0000-000000000000").AnyTimes()

	_, _, err := s.registry.Create(s.ctx, []engine.PlayerSpec{{Name: "A"}}, "")
	s.Require().NoError(err)
	_, _, err = s.registry.Create(s.ctx, []engine.PlayerSpec{{Name: "B"}}, "")
	s.ErrorIs(err, ErrCodeExhausted)
}

func (s *SessionTestSuite) TestCreateRejectsEmptyLobby() {
	s.codes.EXPECT().NewUUID().Return("dddddd00-0000-0000-0000-000000000000")

	_, _, err := s.registry.Create(s.ctx, nil, "")
	s.ErrorIs(err, apperr.ErrInvalidIntent)
	s.Empty(s.registry.List())
}

func (s *SessionTestSuite) TestJoinAndRejectedIntent() {
	s.codes.EXPECT().NewUUID().Return("eeeeee00-0000-0000-0000-000000000000")
	inst, _, err := s.registry.Create(s.ctx, []engine.PlayerSpec{{Name: "Alice"}}, "")
	s.Require().NoError(err)

	p, snap, err := inst.Join(s.ctx, engine.PlayerSpec{Name: "Bob"})
	s.Require().NoError(err)
	s.Equal(2, p.ID)
	s.Len(snap.Players, 2)

	_, _, err = inst.Apply(s.ctx, 2, models.Action{Type: models.ActionStartGame})
	s.ErrorIs(err, apperr.ErrInvalidIntent, "only the host starts")

	events := s.recorded()
	s.Require().Len(events, 2, "rejections run no hooks")
	s.Equal(EventJoined, events[1].Kind)
	s.Equal(2, events[1].PlayerID)
}

func (s *SessionTestSuite) TestAppliedEventsCarryTransfers() {
	inst := s.startedAuction(2)

	_, _, err := inst.Apply(s.ctx, 2, models.Action{Type: models.ActionBidAuction, Amount: 70})
	s.Require().NoError(err)
	snap, res, err := inst.Apply(s.ctx, 1, models.Action{Type: models.ActionBidAuction, Fold: true})
	s.Require().NoError(err)

	s.True(snap.Tiles[8].OwnedBy(2))
	s.Require().Len(res.Transfers, 1)

	events := s.recorded()
	last := events[len(events)-1]
	s.Equal(EventApplied, last.Kind)
	s.Equal(1, last.PlayerID)
	s.Equal(models.ActionBidAuction, last.Action.Type)
	s.Equal(res.Transfers, last.Transfers)
	s.Equal(snap.Version, last.Game.Version)

	for i := 1; i < len(events); i++ {
		s.Greater(events[i].Game.Version, events[i-1].Game.Version, "hooks see commit order")
	}
}

func (s *SessionTestSuite) TestConcurrentBidsAreSerialized() {
	inst := s.startedAuction(4)
	before, err := inst.Snapshot(s.ctx)
	s.Require().NoError(err)

	type outcome struct {
		amount  int
		version uint64
	}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []outcome
	)
	for player := 1; player <= 4; player++ {
		for step := 1; step <= 5; step++ {
			wg.Add(1)
			go func(player, amount int) {
				defer wg.Done()
				snap, _, err := inst.Apply(s.ctx, player, models.Action{Type: models.ActionBidAuction, Amount: amount})
				if err != nil {
					return
				}
				mu.Lock()
				accepted = append(accepted, outcome{amount: amount, version: snap.Version})
				mu.Unlock()
			}(player, 50+player+step*10)
		}
	}
	wg.Wait()

	after, err := inst.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(accepted)
	s.Equal(before.Version+uint64(len(accepted)), after.Version, "one version per accepted bid")
	s.NoError(engine.CheckInvariants(after))

	seen := make(map[uint64]bool)
	best := outcome{}
	for _, o := range accepted {
		s.False(seen[o.version], "no two bids commit the same version")
		seen[o.version] = true
		if o.version > best.version {
			best = o
		}
	}
	s.Equal(best.amount, after.Auction.CurrentBid, "the last committed bid stands")
}

func (s *SessionTestSuite) TestSubscribeReceivesLatestSnapshot() {
	inst := s.startedAuction(2)

	ch, cancel, err := inst.Subscribe(s.ctx, 1)
	s.Require().NoError(err)
	defer cancel()

	first := <-ch
	s.True(first.Auction.IsActive)

	for _, amount := range []int{60, 70, 80} {
		_, _, err := inst.Apply(s.ctx, 2, models.Action{Type: models.ActionBidAuction, Amount: amount})
		s.Require().NoError(err)
	}

	latest := <-ch
	s.Equal(80, latest.Auction.CurrentBid, "a lagging subscriber gets the latest state")

	select {
	case extra := <-ch:
		s.Failf("unexpected snapshot", "version %d", extra.Version)
	default:
	}
}

func (s *SessionTestSuite) TestSubscriptionClosesOnCancelAndDestroy() {
	inst := s.startedAuction(2)

	ch, cancel, err := inst.Subscribe(s.ctx, 4)
	s.Require().NoError(err)
	<-ch
	cancel()
	_, open := <-ch
	s.False(open)

	ch, _, err = inst.Subscribe(s.ctx, 4)
	s.Require().NoError(err)
	<-ch

	final, err := s.registry.Destroy(s.ctx, inst.Code())
	s.Require().NoError(err)
	s.True(final.Auction.IsActive)

	_, open = <-ch
	s.False(open)

	_, err = s.registry.Lookup(inst.Code())
	s.ErrorIs(err, apperr.ErrNotFound)
	_, _, err = inst.Apply(s.ctx, 2, models.Action{Type: models.ActionBidAuction, Amount: 90})
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *SessionTestSuite) TestInvariantViolationHaltsGame() {
	inst := s.startedAuction(2)
	s.Require().NoError(inst.do(s.ctx, func() {
		inst.game.Tiles[1].OwnerID = models.IntPtr(1)
	}))

	_, _, err := inst.Apply(s.ctx, 2, models.Action{Type: models.ActionBidAuction, Amount: 60})
	s.ErrorIs(err, apperr.ErrInvariantViolation)

	halted, err := inst.Halted(s.ctx)
	s.Require().NoError(err)
	s.True(halted)

	_, _, err = inst.Apply(s.ctx, 2, models.Action{Type: models.ActionBidAuction, Amount: 60})
	s.ErrorIs(err, apperr.ErrGameHalted)
	_, _, err = inst.Join(s.ctx, engine.PlayerSpec{Name: "Late"})
	s.ErrorIs(err, apperr.ErrGameHalted)

	snap, err := inst.Snapshot(s.ctx)
	s.Require().NoError(err, "reads still work")
	s.Equal(50, snap.Auction.CurrentBid)
}

func (s *SessionTestSuite) TestAuctionDeadlineTimerResolves() {
	rules := engine.DefaultRules()
	rules.AuctionTimeout = 50 * time.Millisecond
	s.registry.Close()
	s.registry = s.newRegistry(rules)

	inst := s.startedAuction(2)
	_, _, err := inst.Apply(s.ctx, 2, models.Action{Type: models.ActionBidAuction, Amount: 75})
	s.Require().NoError(err)

	s.Eventually(func() bool {
		snap, err := inst.Snapshot(s.ctx)
		return err == nil && !snap.Auction.IsActive
	}, 2*time.Second, 10*time.Millisecond)

	snap, err := inst.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.True(snap.Tiles[8].OwnedBy(2))
	s.Equal(1425, snap.Player(2).Money)

	events := s.recorded()
	last := events[len(events)-1]
	s.Equal(EventAuctionExpired, last.Kind)
	s.Zero(last.PlayerID)
	s.Require().Len(last.Transfers, 1)
	s.Equal(models.TransferReasonAuction, last.Transfers[0].Reason)
}

func (s *SessionTestSuite) TestRestoreResumesUnderSameCode() {
	inst := s.startedAuction(2)
	final, err := s.registry.Destroy(s.ctx, inst.Code())
	s.Require().NoError(err)
	before := len(s.recorded())

	restored, err := s.registry.Restore(final)
	s.Require().NoError(err)
	s.Equal(final.ID, restored.Code())
	s.Len(s.recorded(), before, "restore runs no hooks")

	_, err = s.registry.Restore(final)
	s.ErrorIs(err, apperr.ErrInvalidIntent, "already running")

	snap, _, err := restored.Apply(s.ctx, 2, models.Action{Type: models.ActionBidAuction, Amount: 60})
	s.Require().NoError(err)
	s.Equal(final.Version+1, snap.Version)

	broken := final.Clone()
	broken.ID = "ZZZZZZ"
	broken.Tiles[1].OwnerID = models.IntPtr(2)
	_, err = s.registry.Restore(broken)
	s.ErrorIs(err, apperr.ErrInvariantViolation)
}

func (s *SessionTestSuite) TestClosedRegistryRejectsCreate() {
	s.registry.Close()

	_, _, err := s.registry.Create(s.ctx, []engine.PlayerSpec{{Name: "A"}}, "")
	s.ErrorIs(err, ErrRegistryClosed)
}
