package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/dice"
	"github.com/KirkDiggler/megapoly/internal/models"
)

const (
	defaultTimeout = 5 * time.Second

	oracleSystemPrompt = `You are "The Oracle", a cynical trading AI and master strategist ` +
		`watching a game of Megapoly. Answer in 2-3 sentences without markdown. ` +
		`Focus on liquidity and monopolies.`
	oraclePrompt = "Analyse the move and give one tactical financial tip."
)

// Config holds configuration for the commentary service
type Config struct {
	// Completer is optional; without it every line is a fallback
	Completer Completer

	// Timeout bounds each completion
	Timeout time.Duration

	// Roller picks fallback lines
	Roller dice.Roller

	Logger *zap.SugaredLogger
}

// service implements the Service interface
type service struct {
	completer Completer
	timeout   time.Duration
	roller    dice.Roller
	log       *zap.SugaredLogger
}

// NewService creates a new commentary service
func NewService(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Roller == nil {
		return nil, errors.New("dice roller cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &service{
		completer: cfg.Completer,
		timeout:   timeout,
		roller:    cfg.Roller,
		log:       log,
	}, nil
}

// KindOf maps an action to the fallback group it belongs to
func KindOf(action models.ActionType, player *models.Player) EventKind {
	if player != nil && player.Bankrupt {
		return EventBankrupt
	}
	if player != nil && player.IsJailed {
		return EventJail
	}
	switch action {
	case models.ActionBuyProperty:
		return EventPurchase
	case models.ActionDeclineProperty, models.ActionStartAuction, models.ActionBidAuction:
		return EventAuction
	case models.ActionRollDice:
		return EventRoll
	case models.ActionPayBail:
		return EventJail
	case models.ActionEndTurn:
		return EventEndTurn
	case models.ActionMortgageProperty, models.ActionUnmortgageProperty, models.ActionUpgradeProperty:
		return EventManage
	}
	return EventGeneric
}

// GetCommentary asks the completer for commentary on a move and falls back
// to a canned line when it is missing, slow or failing.
func (s *service) GetCommentary(ctx context.Context, input *GetCommentaryInput) (*GetCommentaryOutput, error) {
	if input == nil || input.Game == nil {
		return nil, errors.New("input and game cannot be nil")
	}
	player := input.Game.Player(input.PlayerID)
	if player == nil {
		return nil, apperr.NotFound("player %d is not in game %s", input.PlayerID, input.Game.ID)
	}

	kind := KindOf(input.Action, player)
	if s.completer == nil {
		return s.fallback(kind, player), nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.completer.Complete(cctx, oracleSystemPrompt, describeMove(input, player)+"\n"+oraclePrompt)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		s.log.Warnw("Commentary unavailable, using fallback",
			"game_id", input.Game.ID,
			"player_id", input.PlayerID,
			"error", err,
		)
		return s.fallback(kind, player), nil
	}

	return &GetCommentaryOutput{Text: text, Source: SourceAI}, nil
}

func describeMove(input *GetCommentaryInput, player *models.Player) string {
	tileName := "none"
	tileID := player.Position
	if input.TileID != nil {
		tileID = *input.TileID
	}
	if tile := input.Game.Tile(tileID); tile != nil {
		tileName = tile.Name
	}

	owned := 0
	for _, tile := range input.Game.Tiles {
		if tile.IsOwned() {
			owned++
		}
	}

	return fmt.Sprintf("DATA: player=%s cash=%d properties=%d owned_on_board=%d tile=%s action=%s",
		player.Name, player.Money, len(player.Properties), owned, tileName, input.Action)
}

func (s *service) fallback(kind EventKind, player *models.Player) *GetCommentaryOutput {
	var messages []string

	switch kind {
	case EventPurchase:
		messages = []string{
			fmt.Sprintf("%s buys the dirt and waits for the rent to roll in. Classic.", player.Name),
			fmt.Sprintf("Another deed for %s. Liquidity is a state of mind.", player.Name),
			"Land is the only asset they stopped printing. Good buy.",
		}
	case EventAuction:
		messages = []string{
			"An auction! Nothing reveals a bluff like a bidding war.",
			"Somebody is about to overpay. The question is who.",
			fmt.Sprintf("%s passes, and the vultures circle.", player.Name),
		}
	case EventRoll:
		messages = []string{
			"The dice do not care about your business plan.",
			fmt.Sprintf("%s rolls. Markets hold their breath.", player.Name),
			"Every roll is a trade with chaos. Price it in.",
		}
	case EventJail:
		messages = []string{
			fmt.Sprintf("%s is behind bars. At least the rent still comes in... oh wait, it does not.", player.Name),
			"Jail: the only place where cash flow goes to zero with certainty.",
			"Insider trading has consequences. Sometimes.",
		}
	case EventBankrupt:
		messages = []string{
			fmt.Sprintf("%s is wiped out. The market is merciless.", player.Name),
			"Another portfolio liquidated. Margin calls wait for no one.",
		}
	case EventEndTurn:
		messages = []string{
			"Turn over. Cash is king, until it is not.",
			fmt.Sprintf("%s hands over the dice with $%dM in the bank.", player.Name, player.Money),
		}
	case EventManage:
		messages = []string{
			"Leverage: the art of owning things with someone else's money.",
			fmt.Sprintf("%s reshuffles the portfolio. Bold.", player.Name),
		}
	default:
		messages = []string{
			"Market analysis in progress...",
			"The Oracle is watching. The Oracle is always watching.",
		}
	}

	return &GetCommentaryOutput{
		Text:   messages[s.roller.Intn(len(messages))],
		Source: SourceFallback,
	}
}

// GetStatusMessage returns a banner line for a game status
func (s *service) GetStatusMessage(ctx context.Context, input *GetStatusMessageInput) (*GetStatusMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	var messages []string
	switch input.Status {
	case models.GameStatusLobby:
		messages = []string{
			fmt.Sprintf("%d tycoons in the lobby. Who else wants to lose a fortune?", input.PlayerCount),
			"The board is set, the bank is open. Join before the host gets impatient.",
			"Lobby open. Bring cash, leave dignity at the door.",
		}
	case models.GameStatusPlaying:
		messages = []string{
			"The market is open. Buy low, charge rent high.",
			"Game in progress. May your dice be doubles and your rivals broke.",
			"Trading is live. Every square is an opportunity or a trap.",
		}
	case models.GameStatusFinished:
		if input.WinnerName != "" {
			messages = []string{
				fmt.Sprintf("%s owns everything worth owning. Game over.", input.WinnerName),
				fmt.Sprintf("All hail %s, last tycoon standing!", input.WinnerName),
			}
		} else {
			messages = []string{"Game over. The bank always wins."}
		}
	default:
		return &GetStatusMessageOutput{Message: "Megapoly is running. Fortune favours the liquid."}, nil
	}

	return &GetStatusMessageOutput{
		Message: messages[s.roller.Intn(len(messages))],
	}, nil
}

// GetErrorMessage returns a friendly line for a rejected intent
func (s *service) GetErrorMessage(ctx context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	name := input.PlayerName
	if name == "" {
		name = "Tycoon"
	}

	var title string
	var messages []string
	switch input.Code {
	case apperr.CodeInsufficientFunds:
		title = "Insufficient Funds"
		messages = []string{
			fmt.Sprintf("Nice try, %s, but your wallet says no.", name),
			fmt.Sprintf("%s, the bank does not do credit. Not for you, anyway.", name),
		}
	case apperr.CodeInvalidIntent:
		title = "Not Now"
		messages = []string{
			fmt.Sprintf("Easy there, %s. That move is not on the table right now.", name),
			fmt.Sprintf("%s, the rules say no. The rules always say no at the worst moment.", name),
		}
	case apperr.CodeNotFound:
		title = "Not Found"
		messages = []string{
			"That game has left the building. Start a new one?",
			fmt.Sprintf("%s, there is nothing here. Did you join a game?", name),
		}
	case apperr.CodeUnauthorized:
		title = "Who Are You?"
		messages = []string{fmt.Sprintf("%s, you are not seated at this table.", name)}
	case apperr.CodeGameHalted, apperr.CodeInvariantViolation:
		title = "Trading Halted"
		messages = []string{"Trading is suspended on this game. Start a new one."}
	default:
		title = "Something Went Wrong"
		messages = []string{"The ledger jammed. Try again in a moment."}
	}

	message := messages[s.roller.Intn(len(messages))]
	if input.Reason != "" {
		message += " (" + input.Reason + ")"
	}

	return &GetErrorMessageOutput{
		Title:   title,
		Message: message,
	}, nil
}
