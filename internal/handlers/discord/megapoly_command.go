package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/internal/services/commentary"
	"github.com/KirkDiggler/megapoly/internal/services/game"
)

// interactionTimeout stays under Discord's three second acknowledgement window
const interactionTimeout = 2500 * time.Millisecond

// Subcommand names
const (
	SubcommandCreate = "create"
	SubcommandJoin   = "join"
	SubcommandStart  = "start"
	SubcommandStatus = "status"
	SubcommandClose  = "close"
)

// MegapolyCommand handles /megapoly and the game buttons
type MegapolyCommand struct {
	BaseCommand
	gameService game.Service
	commentary  commentary.Service
	log         *zap.SugaredLogger
}

// NewMegapolyCommand creates the /megapoly command
func NewMegapolyCommand(gameService game.Service, commentarySvc commentary.Service, log *zap.SugaredLogger) *MegapolyCommand {
	return &MegapolyCommand{
		BaseCommand: BaseCommand{
			Name:        "megapoly",
			Description: "Play Megapoly in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandCreate,
					Description: "Open a new game lobby in this channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandJoin,
					Description: "Take a seat in this channel's lobby",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandStart,
					Description: "Start the game (host only)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandStatus,
					Description: "Show the board",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SubcommandClose,
					Description: "Close the game (host only)",
				},
			},
		},
		gameService: gameService,
		commentary:  commentarySvc,
		log:         log,
	}
}

// Handle processes the /megapoly command
func (c *MegapolyCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return RespondWithEphemeralMessage(s, i, "Pick a subcommand: create, join, start, status or close.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	userID, name := interactionUser(i)
	respond := func(g *models.Game, banner string) error {
		return RespondWithEmbed(s, i, renderGame(g, banner), componentsFor(g))
	}

	switch options[0].Name {
	case SubcommandCreate:
		out, err := c.gameService.CreateGame(ctx, &game.CreateGameInput{
			Players:   []game.PlayerInput{{Name: name, ExternalID: userID}},
			ChannelID: i.ChannelID,
		})
		if err != nil {
			return c.reject(ctx, s, i, name, err)
		}
		c.log.Infow("Game created from Discord", "game_id", out.Game.ID, "channel_id", i.ChannelID)
		return respond(out.Game, c.banner(ctx, out.Game))

	case SubcommandJoin:
		g, err := c.join(ctx, i.ChannelID, userID, name)
		if err != nil {
			return c.reject(ctx, s, i, name, err)
		}
		return respond(g, c.banner(ctx, g))

	case SubcommandStart:
		g, err := c.act(ctx, i.ChannelID, userID, models.Action{Type: models.ActionStartGame})
		if err != nil {
			return c.reject(ctx, s, i, name, err)
		}
		return respond(g, c.banner(ctx, g))

	case SubcommandStatus:
		out, err := c.gameService.GetGameByChannel(ctx, &game.GetGameByChannelInput{ChannelID: i.ChannelID})
		if err != nil {
			return c.reject(ctx, s, i, name, err)
		}
		return respond(out.Game, "")

	case SubcommandClose:
		current, playerID, err := c.seatFor(ctx, i.ChannelID, userID)
		if err != nil {
			return c.reject(ctx, s, i, name, err)
		}
		if current.HostPlayerID != playerID {
			return c.reject(ctx, s, i, name, apperr.New(apperr.CodeUnauthorized, "only the host can close the game"))
		}
		out, err := c.gameService.DestroyGame(ctx, &game.DestroyGameInput{GameID: current.ID})
		if err != nil {
			return c.reject(ctx, s, i, name, err)
		}
		return respond(out.Game, c.banner(ctx, out.Game))
	}

	return RespondWithEphemeralMessage(s, i, "Unknown subcommand "+options[0].Name)
}

// HandleComponent processes a game button click
func (c *MegapolyCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	customID := i.MessageComponentData().CustomID
	userID, name := interactionUser(i)

	var (
		g   *models.Game
		err error
	)
	if customID == ButtonJoin {
		g, err = c.join(ctx, i.ChannelID, userID, name)
	} else {
		g, err = c.clickAction(ctx, i.ChannelID, userID, customID)
	}
	if err != nil {
		return c.reject(ctx, s, i, name, err)
	}

	banner := ""
	if customID == ButtonStart || customID == ButtonJoin || g.Status == models.GameStatusFinished {
		banner = c.banner(ctx, g)
	}
	return UpdateWithEmbed(s, i, renderGame(g, banner), componentsFor(g))
}

func (c *MegapolyCommand) clickAction(ctx context.Context, channelID, userID, customID string) (*models.Game, error) {
	return c.submit(ctx, channelID, userID, func(g *models.Game) (models.Action, error) {
		return actionForButton(customID, g)
	})
}

func (c *MegapolyCommand) join(ctx context.Context, channelID, userID, name string) (*models.Game, error) {
	current, err := c.gameService.GetGameByChannel(ctx, &game.GetGameByChannelInput{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	out, err := c.gameService.JoinGame(ctx, &game.JoinGameInput{
		GameID: current.Game.ID,
		Player: game.PlayerInput{Name: name, ExternalID: userID},
	})
	if err != nil {
		return nil, err
	}
	return out.Game, nil
}

func (c *MegapolyCommand) act(ctx context.Context, channelID, userID string, action models.Action) (*models.Game, error) {
	return c.submit(ctx, channelID, userID, func(*models.Game) (models.Action, error) {
		return action, nil
	})
}

// submit applies the action built from the channel's current game as userID's seat
func (c *MegapolyCommand) submit(ctx context.Context, channelID, userID string, build func(*models.Game) (models.Action, error)) (*models.Game, error) {
	current, playerID, err := c.seatFor(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}
	action, err := build(current)
	if err != nil {
		return nil, err
	}
	out, err := c.gameService.SubmitAction(ctx, &game.SubmitActionInput{
		GameID:   current.ID,
		PlayerID: playerID,
		Action:   action,
	})
	if err != nil {
		return nil, err
	}
	return out.Game, nil
}

// seatFor returns the channel's game and the player slot userID holds in it
func (c *MegapolyCommand) seatFor(ctx context.Context, channelID, userID string) (*models.Game, int, error) {
	current, err := c.gameService.GetGameByChannel(ctx, &game.GetGameByChannelInput{ChannelID: channelID})
	if err != nil {
		return nil, 0, err
	}

	seat, err := c.gameService.GetSeat(ctx, &game.GetSeatInput{ExternalID: userID})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, 0, apperr.New(apperr.CodeUnauthorized, "you are not seated in this game")
		}
		return nil, 0, err
	}
	if seat.Seat.GameID != current.Game.ID {
		return nil, 0, apperr.New(apperr.CodeUnauthorized, "you are not seated in this game")
	}
	return current.Game, seat.Seat.PlayerID, nil
}

func (c *MegapolyCommand) banner(ctx context.Context, g *models.Game) string {
	input := &commentary.GetStatusMessageInput{
		Status:      g.Status,
		PlayerCount: len(g.Players),
	}
	if g.WinnerID != nil {
		if w := g.Player(*g.WinnerID); w != nil {
			input.WinnerName = w.Name
		}
	}
	out, err := c.commentary.GetStatusMessage(ctx, input)
	if err != nil {
		c.log.Warnw("Status message failed", "game_id", g.ID, "error", err)
		return ""
	}
	return out.Message
}

// reject tells the user, and only the user, why their interaction failed
func (c *MegapolyCommand) reject(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, name string, err error) error {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		c.log.Errorw("Discord interaction failed", "channel_id", i.ChannelID, "error", err)
	}

	out, msgErr := c.commentary.GetErrorMessage(ctx, &commentary.GetErrorMessageInput{
		PlayerName: name,
		Code:       code,
		Reason:     apperr.ReasonOf(err),
	})
	if msgErr != nil || out == nil {
		return RespondWithError(s, i, "Error", apperr.ReasonOf(err))
	}
	if respErr := RespondWithError(s, i, out.Title, out.Message); respErr != nil {
		return errors.Join(err, respErr)
	}
	return nil
}
