package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/auth"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/engine"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/internal/repositories/actionlog"
	"github.com/KirkDiggler/megapoly/internal/repositories/archive"
	gameRepo "github.com/KirkDiggler/megapoly/internal/repositories/game"
	ledgerRepo "github.com/KirkDiggler/megapoly/internal/repositories/ledger"
	playerRepo "github.com/KirkDiggler/megapoly/internal/repositories/player"
	"github.com/KirkDiggler/megapoly/internal/services/commentary"
	"github.com/KirkDiggler/megapoly/internal/session"
)

const defaultPersistTimeout = 2 * time.Second

// service implements the Service interface
type service struct {
	registry       *session.Registry
	gameRepo       gameRepo.Repository
	seatRepo       playerRepo.Repository
	ledgerRepo     ledgerRepo.Repository
	actionLog      actionlog.Repository
	archive        Archive
	commentary     commentary.Service
	tokens         *auth.Issuer
	clock          clock.Clock
	persistTimeout time.Duration
	log            *zap.SugaredLogger
}

// NewService creates a new game service and hooks it into the registry so
// every committed change is persisted
func NewService(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Registry == nil {
		return nil, ErrNilRegistry
	}
	if cfg.GameRepo == nil {
		return nil, ErrNilGameRepo
	}
	if cfg.SeatRepo == nil {
		return nil, ErrNilSeatRepo
	}
	if cfg.LedgerRepo == nil {
		return nil, ErrNilLedgerRepo
	}
	if cfg.ActionLog == nil {
		return nil, ErrNilActionLog
	}
	if cfg.Archive == nil {
		return nil, ErrNilArchive
	}
	if cfg.Commentary == nil {
		return nil, ErrNilCommentary
	}
	if cfg.Tokens == nil {
		return nil, ErrNilTokenIssuer
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	persistTimeout := cfg.PersistTimeout
	if persistTimeout <= 0 {
		persistTimeout = defaultPersistTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &service{
		registry:       cfg.Registry,
		gameRepo:       cfg.GameRepo,
		seatRepo:       cfg.SeatRepo,
		ledgerRepo:     cfg.LedgerRepo,
		actionLog:      cfg.ActionLog,
		archive:        cfg.Archive,
		commentary:     cfg.Commentary,
		tokens:         cfg.Tokens,
		clock:          cfg.Clock,
		persistTimeout: persistTimeout,
		log:            log,
	}
	cfg.Registry.OnEvent(s.persist)

	return s, nil
}

// persist runs inside the game's actor after every committed change.
// Failures are logged; the change has already happened.
func (s *service) persist(ev session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	game := ev.Game
	if err := s.gameRepo.SaveGame(ctx, &gameRepo.SaveGameInput{Game: game}); err != nil {
		s.log.Errorw("Failed to save game snapshot",
			"game_id", game.ID,
			"version", game.Version,
			"error", err,
		)
	}

	if len(ev.Transfers) > 0 {
		if err := s.ledgerRepo.AddTransfers(ctx, &ledgerRepo.AddTransfersInput{
			GameID:    game.ID,
			Transfers: ev.Transfers,
		}); err != nil {
			s.log.Errorw("Failed to record transfers",
				"game_id", game.ID,
				"version", game.Version,
				"transfers", len(ev.Transfers),
				"error", err,
			)
		}
	}

	if ev.Action != nil {
		s.actionLog.Record(actionlog.Entry{
			GameID:   game.ID,
			Version:  game.Version,
			PlayerID: ev.PlayerID,
			Action:   *ev.Action,
			At:       s.clock.Now(),
		})
	}

	if game.Status == models.GameStatusFinished && ev.Kind != session.EventCreated {
		if err := s.archive.Write(game); err != nil {
			s.log.Errorw("Failed to archive finished game", "game_id", game.ID, "error", err)
			return
		}
		s.log.Infow("Archived finished game", "game_id", game.ID, "winner_id", game.WinnerID)
	}
}

// CreateGame opens a lobby and seats the initial players
func (s *service) CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	if input.ChannelID != "" {
		if existing := s.liveGameInChannel(ctx, input.ChannelID); existing != nil && existing.Status != models.GameStatusFinished {
			return nil, ErrChannelBusy
		}
	}

	specs := make([]engine.PlayerSpec, len(input.Players))
	for i, p := range input.Players {
		specs[i] = engine.PlayerSpec{Name: p.Name, Token: p.Token}
	}

	_, game, err := s.registry.Create(ctx, specs, input.ChannelID)
	if err != nil {
		return nil, err
	}

	seats := make([]SeatToken, 0, len(game.Players))
	for i, p := range game.Players {
		token, err := s.tokens.Issue(game.ID, p.ID)
		if err != nil {
			if _, derr := s.registry.Destroy(ctx, game.ID); derr != nil {
				s.log.Warnw("Failed to drop game after token failure", "game_id", game.ID, "error", derr)
			}
			return nil, fmt.Errorf("failed to issue seat token: %w", err)
		}
		seats = append(seats, SeatToken{PlayerID: p.ID, Token: token})

		if externalID := input.Players[i].ExternalID; externalID != "" {
			s.saveSeat(ctx, &models.Seat{
				ExternalID: externalID,
				Name:       p.Name,
				GameID:     game.ID,
				PlayerID:   p.ID,
			})
		}
	}

	return &CreateGameOutput{
		Game:         game,
		HostPlayerID: game.HostPlayerID,
		Seats:        seats,
	}, nil
}

// JoinGame seats a player in a lobby. An identity that already holds a seat
// in the game gets that seat back instead of a second one.
func (s *service) JoinGame(ctx context.Context, input *JoinGameInput) (*JoinGameOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.GameID == "" {
		return nil, ErrGameIDRequired
	}

	inst, err := s.registry.Lookup(input.GameID)
	if err != nil {
		return nil, err
	}

	if input.Player.ExternalID != "" {
		out, err := s.rejoin(ctx, inst, input.Player.ExternalID)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}

	player, game, err := inst.Join(ctx, engine.PlayerSpec{
		Name:  input.Player.Name,
		Token: input.Player.Token,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(game.ID, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue seat token: %w", err)
	}

	if input.Player.ExternalID != "" {
		s.saveSeat(ctx, &models.Seat{
			ExternalID: input.Player.ExternalID,
			Name:       player.Name,
			GameID:     game.ID,
			PlayerID:   player.ID,
		})
	}

	return &JoinGameOutput{
		Game:      game,
		PlayerID:  player.ID,
		SeatToken: token,
	}, nil
}

func (s *service) rejoin(ctx context.Context, inst *session.Instance, externalID string) (*JoinGameOutput, error) {
	seat, err := s.seatRepo.GetSeat(ctx, &playerRepo.GetSeatInput{ExternalID: externalID})
	if err != nil {
		if !errors.Is(err, playerRepo.ErrSeatNotFound) {
			s.log.Warnw("Failed to look up seat", "external_id", externalID, "error", err)
		}
		return nil, nil
	}
	if seat.GameID != inst.Code() {
		return nil, nil
	}

	game, err := inst.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if game.Player(seat.PlayerID) == nil {
		return nil, nil
	}

	token, err := s.tokens.Issue(game.ID, seat.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue seat token: %w", err)
	}

	return &JoinGameOutput{
		Game:      game,
		PlayerID:  seat.PlayerID,
		SeatToken: token,
		Rejoined:  true,
	}, nil
}

func (s *service) saveSeat(ctx context.Context, seat *models.Seat) {
	if err := s.seatRepo.SaveSeat(ctx, &playerRepo.SaveSeatInput{Seat: seat}); err != nil {
		s.log.Errorw("Failed to save seat",
			"external_id", seat.ExternalID,
			"game_id", seat.GameID,
			"player_id", seat.PlayerID,
			"error", err,
		)
	}
}

// SubmitAction applies one intent and returns the committed state
func (s *service) SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.GameID == "" {
		return nil, ErrGameIDRequired
	}

	inst, err := s.registry.Lookup(input.GameID)
	if err != nil {
		return nil, err
	}

	game, result, err := inst.Apply(ctx, input.PlayerID, input.Action)
	if err != nil {
		return nil, err
	}

	return &SubmitActionOutput{
		Game:      game,
		Transfers: result.Transfers,
	}, nil
}

// GetGame returns the live state, falling back to the persisted snapshot
// and then to the archive
func (s *service) GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.GameID == "" {
		return nil, ErrGameIDRequired
	}

	if inst, err := s.registry.Lookup(input.GameID); err == nil {
		game, err := inst.Snapshot(ctx)
		if err == nil {
			return &GetGameOutput{Game: game, Live: true}, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	game, err := s.gameRepo.GetGame(ctx, &gameRepo.GetGameInput{GameID: input.GameID})
	if err == nil {
		return &GetGameOutput{Game: game}, nil
	}
	if !errors.Is(err, gameRepo.ErrGameNotFound) {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	game, err = s.archive.Read(input.GameID)
	if err != nil {
		if errors.Is(err, archive.ErrArchiveNotFound) || errors.Is(err, archive.ErrInvalidGameID) {
			return nil, apperr.NotFound("game %s not found", input.GameID)
		}
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return &GetGameOutput{Game: game}, nil
}

// ListLobbies returns live games in a status, ordered by creation time
func (s *service) ListLobbies(ctx context.Context, input *ListLobbiesInput) (*ListLobbiesOutput, error) {
	status := models.GameStatusLobby
	if input != nil && input.Status != "" {
		status = input.Status
	}

	games := make([]*models.Game, 0)
	for _, inst := range s.registry.List() {
		game, err := inst.Snapshot(ctx)
		if err != nil {
			// Destroyed while listing
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if game.Status == status {
			games = append(games, game)
		}
	}

	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	return &ListLobbiesOutput{Games: games}, nil
}

// DestroyGame stops a game, archives its final state and drops everything
// persisted for it except the audit log
func (s *service) DestroyGame(ctx context.Context, input *DestroyGameInput) (*DestroyGameOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.GameID == "" {
		return nil, ErrGameIDRequired
	}

	game, err := s.registry.Destroy(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	if err := s.archive.Write(game); err != nil {
		s.log.Errorw("Failed to archive destroyed game", "game_id", game.ID, "error", err)
	}
	if err := s.gameRepo.DeleteGame(ctx, &gameRepo.DeleteGameInput{GameID: game.ID}); err != nil && !errors.Is(err, gameRepo.ErrGameNotFound) {
		s.log.Errorw("Failed to delete game snapshot", "game_id", game.ID, "error", err)
	}
	if err := s.seatRepo.ReleaseSeats(ctx, &playerRepo.ReleaseSeatsInput{GameID: game.ID}); err != nil {
		s.log.Errorw("Failed to release seats", "game_id", game.ID, "error", err)
	}
	if err := s.ledgerRepo.DeleteTransfers(ctx, &ledgerRepo.DeleteTransfersInput{GameID: game.ID}); err != nil {
		s.log.Errorw("Failed to delete ledger", "game_id", game.ID, "error", err)
	}

	s.log.Infow("Game destroyed", "game_id", game.ID, "status", game.Status, "version", game.Version)
	return &DestroyGameOutput{Game: game}, nil
}

// Subscribe streams snapshots of a live game
func (s *service) Subscribe(ctx context.Context, input *SubscribeInput) (*SubscribeOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.GameID == "" {
		return nil, ErrGameIDRequired
	}

	inst, err := s.registry.Lookup(input.GameID)
	if err != nil {
		return nil, err
	}

	updates, cancel, err := inst.Subscribe(ctx, input.Buffer)
	if err != nil {
		return nil, err
	}

	return &SubscribeOutput{Updates: updates, Cancel: cancel}, nil
}

// GetLedger returns every transfer of a game and per-player totals
func (s *service) GetLedger(ctx context.Context, input *GetLedgerInput) (*GetLedgerOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.GameID == "" {
		return nil, ErrGameIDRequired
	}

	transfers, err := s.ledgerRepo.GetTransfersForGame(ctx, &ledgerRepo.GetTransfersForGameInput{GameID: input.GameID})
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers: %w", err)
	}
	totals, err := s.ledgerRepo.GetPlayerTotals(ctx, &ledgerRepo.GetPlayerTotalsInput{GameID: input.GameID})
	if err != nil {
		return nil, fmt.Errorf("failed to get player totals: %w", err)
	}

	return &GetLedgerOutput{
		Transfers: transfers.Transfers,
		Totals:    totals.Totals,
	}, nil
}

// GetSeat returns the seat an external identity holds
func (s *service) GetSeat(ctx context.Context, input *GetSeatInput) (*GetSeatOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.ExternalID == "" {
		return nil, ErrExternalRequired
	}

	seat, err := s.seatRepo.GetSeat(ctx, &playerRepo.GetSeatInput{ExternalID: input.ExternalID})
	if err != nil {
		if errors.Is(err, playerRepo.ErrSeatNotFound) {
			return nil, apperr.NotFound("no seat for %s", input.ExternalID)
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}

	return &GetSeatOutput{Seat: seat}, nil
}

// GetGameByChannel returns the game hosted in a channel. An unfinished live
// game wins over a finished one; storage is consulted last.
func (s *service) GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*GetGameOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if input.ChannelID == "" {
		return nil, ErrChannelRequired
	}

	if game := s.liveGameInChannel(ctx, input.ChannelID); game != nil {
		return &GetGameOutput{Game: game, Live: true}, nil
	}

	game, err := s.gameRepo.GetGameByChannel(ctx, &gameRepo.GetGameByChannelInput{ChannelID: input.ChannelID})
	if err != nil {
		if errors.Is(err, gameRepo.ErrGameNotFound) {
			return nil, apperr.NotFound("no game in channel %s", input.ChannelID)
		}
		return nil, fmt.Errorf("failed to get game by channel: %w", err)
	}
	return &GetGameOutput{Game: game}, nil
}

func (s *service) liveGameInChannel(ctx context.Context, channelID string) *models.Game {
	var found *models.Game
	for _, inst := range s.registry.List() {
		if inst.ChannelID() != channelID {
			continue
		}
		game, err := inst.Snapshot(ctx)
		if err != nil {
			continue
		}
		if game.Status != models.GameStatusFinished {
			return game
		}
		if found == nil || game.UpdatedAt.After(found.UpdatedAt) {
			found = game
		}
	}
	return found
}

// GetCommentary returns advisory text about a player's situation. It reads
// the game but never submits anything to it.
func (s *service) GetCommentary(ctx context.Context, input *GetCommentaryInput) (*commentary.GetCommentaryOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	out, err := s.GetGame(ctx, &GetGameInput{GameID: input.GameID})
	if err != nil {
		return nil, err
	}

	return s.commentary.GetCommentary(ctx, &commentary.GetCommentaryInput{
		Game:     out.Game,
		PlayerID: input.PlayerID,
		Action:   input.Action,
		TileID:   input.TileID,
	})
}

// Restore resumes persisted lobbies and running games. A game that fails
// to restore is logged and skipped.
func (s *service) Restore(ctx context.Context) (*RestoreOutput, error) {
	out := &RestoreOutput{}

	for _, status := range []models.GameStatus{models.GameStatusLobby, models.GameStatusPlaying} {
		listed, err := s.gameRepo.ListGames(ctx, &gameRepo.ListGamesInput{Status: status})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s games: %w", status, err)
		}

		for _, game := range listed.Games {
			if _, err := s.registry.Restore(game); err != nil {
				out.Failed++
				s.log.Warnw("Failed to restore game",
					"game_id", game.ID,
					"status", game.Status,
					"error", err,
				)
				continue
			}
			out.Restored++
		}
	}

	s.log.Infow("Restored games", "restored", out.Restored, "failed", out.Failed)
	return out, nil
}
