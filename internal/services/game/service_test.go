package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/megapoly/internal/auth"
	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/common/uuid"
	uuidMocks "github.com/KirkDiggler/megapoly/internal/common/uuid/mocks"
	diceMocks "github.com/KirkDiggler/megapoly/internal/dice/mocks"
	"github.com/KirkDiggler/megapoly/internal/engine"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/internal/repositories/actionlog"
	actionlogMocks "github.com/KirkDiggler/megapoly/internal/repositories/actionlog/mocks"
	"github.com/KirkDiggler/megapoly/internal/repositories/archive"
	gameRepo "github.com/KirkDiggler/megapoly/internal/repositories/game"
	gameMocks "github.com/KirkDiggler/megapoly/internal/repositories/game/mocks"
	ledgerRepo "github.com/KirkDiggler/megapoly/internal/repositories/ledger"
	ledgerMocks "github.com/KirkDiggler/megapoly/internal/repositories/ledger/mocks"
	playerRepo "github.com/KirkDiggler/megapoly/internal/repositories/player"
	playerMocks "github.com/KirkDiggler/megapoly/internal/repositories/player/mocks"
	"github.com/KirkDiggler/megapoly/internal/services/commentary"
	"github.com/KirkDiggler/megapoly/internal/session"
)

type GameServiceTestSuite struct {
	suite.Suite
	ctx            context.Context
	mockCtrl       *gomock.Controller
	mockGameRepo   *gameMocks.MockRepository
	mockSeatRepo   *playerMocks.MockRepository
	mockLedgerRepo *ledgerMocks.MockRepository
	mockActionLog  *actionlogMocks.MockRepository
	mockDiceRoller *diceMocks.MockRoller
	mockUUID       *uuidMocks.MockUUID

	engine      *engine.Engine
	registry    *session.Registry
	archive     *archive.Store
	tokens      *auth.Issuer
	gameService *service

	testChannelID string
}

func (s *GameServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mockCtrl = gomock.NewController(s.T())
	s.mockGameRepo = gameMocks.NewMockRepository(s.mockCtrl)
	s.mockSeatRepo = playerMocks.NewMockRepository(s.mockCtrl)
	s.mockLedgerRepo = ledgerMocks.NewMockRepository(s.mockCtrl)
	s.mockActionLog = actionlogMocks.NewMockRepository(s.mockCtrl)
	s.mockDiceRoller = diceMocks.NewMockRoller(s.mockCtrl)
	s.mockUUID = uuidMocks.NewMockUUID(s.mockCtrl)
	s.testChannelID = "test-channel-id"

	cat, err := catalog.Load()
	s.Require().NoError(err)

	s.engine, err = engine.New(&engine.Config{
		Catalog:       cat,
		Roller:        s.mockDiceRoller,
		Clock:         clock.New(),
		UUIDGenerator: uuid.New(),
	})
	s.Require().NoError(err)

	s.registry, err = session.NewRegistry(&session.Config{
		Engine:        s.engine,
		Clock:         clock.New(),
		UUIDGenerator: s.mockUUID,
	})
	s.Require().NoError(err)

	s.archive, err = archive.New(&archive.Config{Dir: s.T().TempDir()})
	s.Require().NoError(err)

	s.tokens, err = auth.New(&auth.Config{
		Secret: []byte("test-secret-0123456789"),
		Clock:  clock.New(),
	})
	s.Require().NoError(err)

	commentaryService, err := commentary.NewService(&commentary.Config{Roller: s.mockDiceRoller})
	s.Require().NoError(err)

	s.gameService, err = NewService(&Config{
		Registry:   s.registry,
		GameRepo:   s.mockGameRepo,
		SeatRepo:   s.mockSeatRepo,
		LedgerRepo: s.mockLedgerRepo,
		ActionLog:  s.mockActionLog,
		Archive:    s.archive,
		Commentary: commentaryService,
		Tokens:     s.tokens,
		Clock:      clock.New(),
	})
	s.Require().NoError(err)
}

func (s *GameServiceTestSuite) TearDownTest() {
	s.registry.Close()
	s.mockCtrl.Finish()
}

func TestGameServiceSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

// createLobby opens a lobby under code ABCDEF, or the code of uuidValue
func (s *GameServiceTestSuite) createLobby(uuidValue, channelID string, players ...PlayerInput) *CreateGameOutput {
	s.mockUUID.EXPECT().NewUUID().Return(uuidValue)
	s.mockGameRepo.EXPECT().SaveGame(gomock.Any(), gomock.Any()).Return(nil)

	out, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{
		Players:   players,
		ChannelID: channelID,
	})
	s.Require().NoError(err)
	return out
}

func (s *GameServiceTestSuite) startGame(gameID string) {
	s.mockGameRepo.EXPECT().SaveGame(gomock.Any(), gomock.Any()).Return(nil)
	s.mockActionLog.EXPECT().Record(gomock.Any())

	_, err := s.gameService.SubmitAction(s.ctx, &SubmitActionInput{
		GameID:   gameID,
		PlayerID: 1,
		Action:   models.Action{Type: models.ActionStartGame},
	})
	s.Require().NoError(err)
}

func (s *GameServiceTestSuite) TestNewServiceRequiresCollaborators() {
	_, err := NewService(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = NewService(&Config{})
	s.ErrorIs(err, ErrNilRegistry)

	_, err = NewService(&Config{Registry: s.registry, GameRepo: s.mockGameRepo})
	s.ErrorIs(err, ErrNilSeatRepo)
}

func (s *GameServiceTestSuite) TestCreateGameIssuesSeatTokens() {
	s.mockUUID.EXPECT().NewUUID().Return("abcdef12-3456-7890-abcd-ef1234567890")
	s.mockGameRepo.EXPECT().
		SaveGame(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *gameRepo.SaveGameInput) error {
			s.Equal("ABCDEF", input.Game.ID)
			s.Equal(models.GameStatusLobby, input.Game.Status)
			s.Equal(s.testChannelID, input.Game.ChannelID)
			return nil
		})
	s.mockSeatRepo.EXPECT().
		SaveSeat(gomock.Any(), &playerRepo.SaveSeatInput{Seat: &models.Seat{
			ExternalID: "discord-1",
			Name:       "Alice",
			GameID:     "ABCDEF",
			PlayerID:   1,
		}}).
		Return(nil)

	out, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{
		Players: []PlayerInput{
			{Name: "Alice", ExternalID: "discord-1"},
			{Name: "Bob", Token: models.TokenYacht},
		},
		ChannelID: s.testChannelID,
	})
	s.Require().NoError(err)

	s.Equal("ABCDEF", out.Game.ID)
	s.Equal(1, out.HostPlayerID)
	s.Equal(models.TokenYacht, out.Game.Players[1].Token)
	s.Require().Len(out.Seats, 2)

	claims, err := s.tokens.Parse(out.Seats[1].Token)
	s.Require().NoError(err)
	s.Equal("ABCDEF", claims.GameID)
	s.Equal(2, claims.PlayerID)
}

func (s *GameServiceTestSuite) TestCreateGameRejectsBusyChannel() {
	s.createLobby("abcdef12-0000", s.testChannelID, PlayerInput{Name: "Alice"})

	_, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{
		Players:   []PlayerInput{{Name: "Bob"}},
		ChannelID: s.testChannelID,
	})
	s.ErrorIs(err, ErrChannelBusy)
	s.Equal(apperr.CodeInvalidIntent, apperr.CodeOf(err))
}

func (s *GameServiceTestSuite) TestCreateGameRejectsEmptyLobby() {
	s.mockUUID.EXPECT().NewUUID().Return("abcdef12-0000")

	_, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{})
	s.ErrorIs(err, apperr.ErrInvalidIntent)

	_, err = s.gameService.CreateGame(s.ctx, nil)
	s.ErrorIs(err, ErrNilInput)
}

func (s *GameServiceTestSuite) TestJoinGameSeatsPlayer() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"})

	s.mockSeatRepo.EXPECT().
		GetSeat(gomock.Any(), &playerRepo.GetSeatInput{ExternalID: "discord-2"}).
		Return(nil, playerRepo.ErrSeatNotFound)
	s.mockGameRepo.EXPECT().SaveGame(gomock.Any(), gomock.Any()).Return(nil)
	s.mockSeatRepo.EXPECT().SaveSeat(gomock.Any(), gomock.Any()).Return(nil)

	out, err := s.gameService.JoinGame(s.ctx, &JoinGameInput{
		GameID: lobby.Game.ID,
		Player: PlayerInput{Name: "Bob", ExternalID: "discord-2"},
	})
	s.Require().NoError(err)

	s.Equal(2, out.PlayerID)
	s.False(out.Rejoined)
	s.Len(out.Game.Players, 2)

	claims, err := s.tokens.Parse(out.SeatToken)
	s.Require().NoError(err)
	s.Equal(2, claims.PlayerID)
}

func (s *GameServiceTestSuite) TestJoinGameReturnsExistingSeat() {
	s.mockSeatRepo.EXPECT().SaveSeat(gomock.Any(), gomock.Any()).Return(nil)
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice", ExternalID: "discord-1"})

	s.mockSeatRepo.EXPECT().
		GetSeat(gomock.Any(), gomock.Any()).
		Return(&models.Seat{ExternalID: "discord-1", GameID: lobby.Game.ID, PlayerID: 1}, nil)

	out, err := s.gameService.JoinGame(s.ctx, &JoinGameInput{
		GameID: lobby.Game.ID,
		Player: PlayerInput{Name: "Alice again", ExternalID: "discord-1"},
	})
	s.Require().NoError(err)

	s.True(out.Rejoined)
	s.Equal(1, out.PlayerID)
	s.Len(out.Game.Players, 1)
}

func (s *GameServiceTestSuite) TestJoinGameAfterStartIsRejected() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"}, PlayerInput{Name: "Bob"})
	s.startGame(lobby.Game.ID)

	_, err := s.gameService.JoinGame(s.ctx, &JoinGameInput{
		GameID: lobby.Game.ID,
		Player: PlayerInput{Name: "Carol"},
	})
	s.ErrorIs(err, apperr.ErrInvalidIntent)
}

func (s *GameServiceTestSuite) TestJoinUnknownGame() {
	_, err := s.gameService.JoinGame(s.ctx, &JoinGameInput{
		GameID: "NOPE00",
		Player: PlayerInput{Name: "Bob"},
	})
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *GameServiceTestSuite) TestSubmitActionPersistsTransfersAndAudit() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"}, PlayerInput{Name: "Bob"})
	gameID := lobby.Game.ID

	var entries []actionlog.Entry
	s.mockGameRepo.EXPECT().SaveGame(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	s.mockActionLog.EXPECT().
		Record(gomock.Any()).
		Do(func(entry actionlog.Entry) { entries = append(entries, entry) }).
		Times(3)
	gomock.InOrder(
		s.mockDiceRoller.EXPECT().Roll(6).Return(3),
		s.mockDiceRoller.EXPECT().Roll(6).Return(5),
	)
	s.mockLedgerRepo.EXPECT().
		AddTransfers(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *ledgerRepo.AddTransfersInput) error {
			s.Equal(gameID, input.GameID)
			s.Require().Len(input.Transfers, 1)
			s.Equal(models.TransferReasonPurchase, input.Transfers[0].Reason)
			s.Equal(100, input.Transfers[0].Amount)
			s.Equal(models.IntPtr(1), input.Transfers[0].FromPlayerID)
			s.Nil(input.Transfers[0].ToPlayerID)
			return nil
		})

	for _, action := range []models.ActionType{models.ActionStartGame, models.ActionRollDice} {
		_, err := s.gameService.SubmitAction(s.ctx, &SubmitActionInput{
			GameID:   gameID,
			PlayerID: 1,
			Action:   models.Action{Type: action},
		})
		s.Require().NoError(err)
	}

	out, err := s.gameService.SubmitAction(s.ctx, &SubmitActionInput{
		GameID:   gameID,
		PlayerID: 1,
		Action:   models.Action{Type: models.ActionBuyProperty},
	})
	s.Require().NoError(err)

	s.True(out.Game.Tiles[8].OwnedBy(1))
	s.Equal(1400, out.Game.Players[0].Money)
	s.Len(out.Transfers, 1)

	s.Require().Len(entries, 3)
	s.Equal(models.ActionStartGame, entries[0].Action.Type)
	s.Equal(uint64(1), entries[0].Version)
	s.Equal(models.ActionBuyProperty, entries[2].Action.Type)
	s.Equal(uint64(3), entries[2].Version)
	s.Equal(1, entries[2].PlayerID)
}

func (s *GameServiceTestSuite) TestRejectedActionPersistsNothing() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"}, PlayerInput{Name: "Bob"})

	_, err := s.gameService.SubmitAction(s.ctx, &SubmitActionInput{
		GameID:   lobby.Game.ID,
		PlayerID: 2,
		Action:   models.Action{Type: models.ActionStartGame},
	})
	s.ErrorIs(err, apperr.ErrInvalidIntent)

	_, err = s.gameService.SubmitAction(s.ctx, &SubmitActionInput{
		GameID:   "NOPE00",
		PlayerID: 1,
		Action:   models.Action{Type: models.ActionRollDice},
	})
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *GameServiceTestSuite) TestPersistenceFailureDoesNotRejectIntent() {
	s.mockUUID.EXPECT().NewUUID().Return("abcdef12-0000")
	s.mockGameRepo.EXPECT().SaveGame(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(2)
	s.mockActionLog.EXPECT().Record(gomock.Any())

	lobby, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{
		Players: []PlayerInput{{Name: "Alice"}, {Name: "Bob"}},
	})
	s.Require().NoError(err)

	out, err := s.gameService.SubmitAction(s.ctx, &SubmitActionInput{
		GameID:   lobby.Game.ID,
		PlayerID: 1,
		Action:   models.Action{Type: models.ActionStartGame},
	})
	s.Require().NoError(err)
	s.Equal(models.GameStatusPlaying, out.Game.Status)
}

func (s *GameServiceTestSuite) TestFinishedGamesAreArchived() {
	finished := &models.Game{
		ID:       "DONE00",
		Status:   models.GameStatusFinished,
		WinnerID: models.IntPtr(2),
		Version:  42,
	}
	action := models.Action{Type: models.ActionEndTurn}

	s.mockGameRepo.EXPECT().SaveGame(gomock.Any(), &gameRepo.SaveGameInput{Game: finished}).Return(nil)
	s.mockActionLog.EXPECT().Record(gomock.Any())

	s.gameService.persist(session.Event{
		Kind:     session.EventApplied,
		Game:     finished,
		PlayerID: 1,
		Action:   &action,
	})

	archived, err := s.archive.Read("DONE00")
	s.Require().NoError(err)
	s.Equal(uint64(42), archived.Version)
	s.Equal(models.IntPtr(2), archived.WinnerID)
}

func (s *GameServiceTestSuite) TestGetGameFallsBackToStorage() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"})

	live, err := s.gameService.GetGame(s.ctx, &GetGameInput{GameID: lobby.Game.ID})
	s.Require().NoError(err)
	s.True(live.Live)

	stored := &models.Game{ID: "STORED", Status: models.GameStatusPlaying}
	s.mockGameRepo.EXPECT().GetGame(gomock.Any(), &gameRepo.GetGameInput{GameID: "STORED"}).Return(stored, nil)
	out, err := s.gameService.GetGame(s.ctx, &GetGameInput{GameID: "STORED"})
	s.Require().NoError(err)
	s.False(out.Live)
	s.Equal(stored, out.Game)

	s.Require().NoError(s.archive.Write(&models.Game{ID: "OLD000", Status: models.GameStatusFinished}))
	s.mockGameRepo.EXPECT().GetGame(gomock.Any(), gomock.Any()).Return(nil, gameRepo.ErrGameNotFound)
	out, err = s.gameService.GetGame(s.ctx, &GetGameInput{GameID: "OLD000"})
	s.Require().NoError(err)
	s.Equal(models.GameStatusFinished, out.Game.Status)

	s.mockGameRepo.EXPECT().GetGame(gomock.Any(), gomock.Any()).Return(nil, gameRepo.ErrGameNotFound)
	_, err = s.gameService.GetGame(s.ctx, &GetGameInput{GameID: "NOPE00"})
	s.ErrorIs(err, apperr.ErrNotFound)

	s.mockGameRepo.EXPECT().GetGame(gomock.Any(), gomock.Any()).Return(nil, gameRepo.ErrGameNotFound)
	_, err = s.gameService.GetGame(s.ctx, &GetGameInput{GameID: "../etc"})
	s.ErrorIs(err, apperr.ErrNotFound, "ids that cannot name an archive are simply unknown")

	s.mockGameRepo.EXPECT().GetGame(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
	_, err = s.gameService.GetGame(s.ctx, &GetGameInput{GameID: "NOPE00"})
	s.Error(err)
	s.Equal(apperr.CodeInternal, apperr.CodeOf(err))
}

func (s *GameServiceTestSuite) TestListLobbiesFiltersByStatus() {
	playing := s.createLobby("aaaaaa00-0000", "", PlayerInput{Name: "Alice"}, PlayerInput{Name: "Bob"})
	lobby := s.createLobby("bbbbbb00-0000", "", PlayerInput{Name: "Carol"})
	s.startGame(playing.Game.ID)

	out, err := s.gameService.ListLobbies(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(out.Games, 1)
	s.Equal(lobby.Game.ID, out.Games[0].ID)

	out, err = s.gameService.ListLobbies(s.ctx, &ListLobbiesInput{Status: models.GameStatusPlaying})
	s.Require().NoError(err)
	s.Require().Len(out.Games, 1)
	s.Equal("AAAAAA", out.Games[0].ID)
}

func (s *GameServiceTestSuite) TestDestroyGameArchivesAndCleansUp() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"})
	gameID := lobby.Game.ID

	s.mockGameRepo.EXPECT().DeleteGame(gomock.Any(), &gameRepo.DeleteGameInput{GameID: gameID}).Return(gameRepo.ErrGameNotFound)
	s.mockSeatRepo.EXPECT().ReleaseSeats(gomock.Any(), &playerRepo.ReleaseSeatsInput{GameID: gameID}).Return(nil)
	s.mockLedgerRepo.EXPECT().DeleteTransfers(gomock.Any(), &ledgerRepo.DeleteTransfersInput{GameID: gameID}).Return(nil)

	out, err := s.gameService.DestroyGame(s.ctx, &DestroyGameInput{GameID: gameID})
	s.Require().NoError(err)
	s.Equal(gameID, out.Game.ID)

	archived, err := s.archive.Read(gameID)
	s.Require().NoError(err)
	s.Equal(models.GameStatusLobby, archived.Status)

	_, err = s.gameService.SubmitAction(s.ctx, &SubmitActionInput{
		GameID:   gameID,
		PlayerID: 1,
		Action:   models.Action{Type: models.ActionStartGame},
	})
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.gameService.DestroyGame(s.ctx, &DestroyGameInput{GameID: gameID})
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *GameServiceTestSuite) TestSubscribeStreamsSnapshots() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"}, PlayerInput{Name: "Bob"})

	sub, err := s.gameService.Subscribe(s.ctx, &SubscribeInput{GameID: lobby.Game.ID, Buffer: 1})
	s.Require().NoError(err)
	defer sub.Cancel()

	first := s.receive(sub.Updates)
	s.Equal(models.GameStatusLobby, first.Status)

	s.startGame(lobby.Game.ID)

	next := s.receive(sub.Updates)
	s.Equal(models.GameStatusPlaying, next.Status)
	s.Equal(uint64(1), next.Version)
}

func (s *GameServiceTestSuite) receive(ch <-chan *models.Game) *models.Game {
	select {
	case g, ok := <-ch:
		s.Require().True(ok)
		return g
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for snapshot")
		return nil
	}
}

func (s *GameServiceTestSuite) TestGetLedger() {
	transfers := []models.Transfer{
		{GameID: "ABCDEF", Version: 3, FromPlayerID: models.IntPtr(1), Amount: 100, Reason: models.TransferReasonPurchase},
	}
	totals := []ledgerRepo.PlayerTotals{{PlayerID: 1, Paid: 100}}

	s.mockLedgerRepo.EXPECT().
		GetTransfersForGame(gomock.Any(), &ledgerRepo.GetTransfersForGameInput{GameID: "ABCDEF"}).
		Return(&ledgerRepo.GetTransfersForGameOutput{Transfers: transfers}, nil)
	s.mockLedgerRepo.EXPECT().
		GetPlayerTotals(gomock.Any(), &ledgerRepo.GetPlayerTotalsInput{GameID: "ABCDEF"}).
		Return(&ledgerRepo.GetPlayerTotalsOutput{Totals: totals}, nil)

	out, err := s.gameService.GetLedger(s.ctx, &GetLedgerInput{GameID: "ABCDEF"})
	s.Require().NoError(err)
	s.Equal(transfers, out.Transfers)
	s.Equal(totals, out.Totals)

	s.mockLedgerRepo.EXPECT().GetTransfersForGame(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
	_, err = s.gameService.GetLedger(s.ctx, &GetLedgerInput{GameID: "ABCDEF"})
	s.Error(err)

	_, err = s.gameService.GetLedger(s.ctx, &GetLedgerInput{})
	s.ErrorIs(err, ErrGameIDRequired)
}

func (s *GameServiceTestSuite) TestGetSeat() {
	seat := &models.Seat{ExternalID: "discord-1", GameID: "ABCDEF", PlayerID: 2}
	s.mockSeatRepo.EXPECT().GetSeat(gomock.Any(), &playerRepo.GetSeatInput{ExternalID: "discord-1"}).Return(seat, nil)

	out, err := s.gameService.GetSeat(s.ctx, &GetSeatInput{ExternalID: "discord-1"})
	s.Require().NoError(err)
	s.Equal(seat, out.Seat)

	s.mockSeatRepo.EXPECT().GetSeat(gomock.Any(), gomock.Any()).Return(nil, playerRepo.ErrSeatNotFound)
	_, err = s.gameService.GetSeat(s.ctx, &GetSeatInput{ExternalID: "discord-9"})
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.gameService.GetSeat(s.ctx, &GetSeatInput{})
	s.ErrorIs(err, ErrExternalRequired)
}

func (s *GameServiceTestSuite) TestGetGameByChannel() {
	lobby := s.createLobby("abcdef12-0000", s.testChannelID, PlayerInput{Name: "Alice"})

	out, err := s.gameService.GetGameByChannel(s.ctx, &GetGameByChannelInput{ChannelID: s.testChannelID})
	s.Require().NoError(err)
	s.True(out.Live)
	s.Equal(lobby.Game.ID, out.Game.ID)

	s.mockGameRepo.EXPECT().
		GetGameByChannel(gomock.Any(), &gameRepo.GetGameByChannelInput{ChannelID: "other"}).
		Return(&models.Game{ID: "STORED"}, nil)
	out, err = s.gameService.GetGameByChannel(s.ctx, &GetGameByChannelInput{ChannelID: "other"})
	s.Require().NoError(err)
	s.False(out.Live)
	s.Equal("STORED", out.Game.ID)

	s.mockGameRepo.EXPECT().GetGameByChannel(gomock.Any(), gomock.Any()).Return(nil, gameRepo.ErrGameNotFound)
	_, err = s.gameService.GetGameByChannel(s.ctx, &GetGameByChannelInput{ChannelID: "empty"})
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.gameService.GetGameByChannel(s.ctx, &GetGameByChannelInput{})
	s.ErrorIs(err, ErrChannelRequired)
}

func (s *GameServiceTestSuite) TestRestoreResumesPersistedGames() {
	lobby, err := s.engine.NewGame("LOBBY1", "", []engine.PlayerSpec{{Name: "Alice"}})
	s.Require().NoError(err)

	running, err := s.engine.NewGame("PLAY01", "", []engine.PlayerSpec{{Name: "Alice"}, {Name: "Bob"}})
	s.Require().NoError(err)
	_, err = s.engine.Apply(running, 1, models.Action{Type: models.ActionStartGame})
	s.Require().NoError(err)

	broken := running.Clone()
	broken.ID = "BROKEN"
	broken.Tiles[1].OwnerID = models.IntPtr(1)

	s.mockGameRepo.EXPECT().
		ListGames(gomock.Any(), &gameRepo.ListGamesInput{Status: models.GameStatusLobby}).
		Return(&gameRepo.ListGamesOutput{Games: []*models.Game{lobby}}, nil)
	s.mockGameRepo.EXPECT().
		ListGames(gomock.Any(), &gameRepo.ListGamesInput{Status: models.GameStatusPlaying}).
		Return(&gameRepo.ListGamesOutput{Games: []*models.Game{broken, running}}, nil)

	out, err := s.gameService.Restore(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, out.Restored)
	s.Equal(1, out.Failed)

	got, err := s.gameService.GetGame(s.ctx, &GetGameInput{GameID: "PLAY01"})
	s.Require().NoError(err)
	s.True(got.Live)
	s.Equal(models.GameStatusPlaying, got.Game.Status)

	_, err = s.registry.Lookup("BROKEN")
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *GameServiceTestSuite) TestRestoreFailsWhenStorageIsDown() {
	s.mockGameRepo.EXPECT().ListGames(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err := s.gameService.Restore(s.ctx)
	s.Error(err)
}

func (s *GameServiceTestSuite) TestGetCommentaryFallsBackWithoutCompleter() {
	lobby := s.createLobby("abcdef12-0000", "", PlayerInput{Name: "Alice"})
	s.mockDiceRoller.EXPECT().Intn(3).Return(0)

	out, err := s.gameService.GetCommentary(s.ctx, &GetCommentaryInput{
		GameID:   lobby.Game.ID,
		PlayerID: 1,
		Action:   models.ActionRollDice,
	})
	s.Require().NoError(err)
	s.Equal(commentary.SourceFallback, out.Source)
	s.Equal("The dice do not care about your business plan.", out.Text)

	s.mockGameRepo.EXPECT().GetGame(gomock.Any(), gomock.Any()).Return(nil, gameRepo.ErrGameNotFound)
	_, err = s.gameService.GetCommentary(s.ctx, &GetCommentaryInput{GameID: "NOPE00", PlayerID: 1})
	s.ErrorIs(err, apperr.ErrNotFound)
}
