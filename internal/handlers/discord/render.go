package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
)

// Button IDs
const (
	ButtonJoin    = "megapoly_join"
	ButtonStart   = "megapoly_start"
	ButtonRoll    = "megapoly_roll"
	ButtonPayBail = "megapoly_bail"
	ButtonBuy     = "megapoly_buy"
	ButtonDecline = "megapoly_decline"
	ButtonEndTurn = "megapoly_end"
	ButtonBid10   = "megapoly_bid_10"
	ButtonBid50   = "megapoly_bid_50"
	ButtonFold    = "megapoly_fold"
)

// logLines is how many log entries the board embed shows
const logLines = 5

// renderGame builds the board embed for g, topped by an optional banner
func renderGame(g *models.Game, banner string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("Megapoly %s", g.ID),
		Color:  colorInfo,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("v%d", g.Version)},
	}

	var desc strings.Builder
	if banner != "" {
		desc.WriteString("**" + banner + "**\n")
	}

	switch g.Status {
	case models.GameStatusLobby:
		fmt.Fprintf(&desc, "Waiting for players. %d seated.", len(g.Players))
	case models.GameStatusPlaying:
		if p := g.CurrentPlayer(); p != nil {
			fmt.Fprintf(&desc, "%s to play (%s)", p.Name, phaseLabel(g.TurnPhase))
		}
		if g.Dice != [2]int{} {
			fmt.Fprintf(&desc, "\nLast roll: %d + %d", g.Dice[0], g.Dice[1])
		}
	case models.GameStatusFinished:
		embed.Color = colorNeutral
		if g.WinnerID != nil {
			if w := g.Player(*g.WinnerID); w != nil {
				fmt.Fprintf(&desc, "%s wins.", w.Name)
			}
		} else {
			desc.WriteString("Game closed.")
		}
	}
	embed.Description = desc.String()

	for _, p := range g.Players {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   playerLabel(g, &p),
			Value:  playerSummary(g, &p),
			Inline: true,
		})
	}

	if g.Auction.IsActive && g.Auction.PropertyID != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Auction",
			Value: auctionSummary(g),
		})
	}

	if len(g.Log) > 0 {
		n := min(len(g.Log), logLines)
		lines := make([]string, n)
		for i := 0; i < n; i++ {
			lines[i] = g.Log[i].Text
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Log",
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}

func phaseLabel(phase models.TurnPhase) string {
	switch phase {
	case models.PhaseRoll:
		return "roll"
	case models.PhaseAction:
		return "buy or decline"
	case models.PhaseEnd:
		return "end turn"
	}
	return strings.ToLower(string(phase))
}

func playerLabel(g *models.Game, p *models.Player) string {
	label := fmt.Sprintf("%s (%s)", p.Name, p.Token)
	if g.Status == models.GameStatusPlaying {
		if cur := g.CurrentPlayer(); cur != nil && cur.ID == p.ID {
			label = "▶ " + label
		}
	}
	return label
}

func playerSummary(g *models.Game, p *models.Player) string {
	if p.Bankrupt {
		return "Bankrupt"
	}
	where := fmt.Sprintf("#%d", p.Position)
	if t := g.Tile(p.Position); t != nil {
		where = t.Name
	}
	summary := fmt.Sprintf("$%dM\n%s\n%d properties", p.Money, where, len(p.Properties))
	if p.IsJailed {
		summary += "\nIn jail"
	}
	return summary
}

func auctionSummary(g *models.Game) string {
	name := fmt.Sprintf("#%d", *g.Auction.PropertyID)
	if t := g.Tile(*g.Auction.PropertyID); t != nil {
		name = t.Name
	}
	if g.Auction.HighestBidderID == nil {
		return fmt.Sprintf("%s, opening at $%dM", name, g.Auction.CurrentBid)
	}
	leader := "?"
	if p := g.Player(*g.Auction.HighestBidderID); p != nil {
		leader = p.Name
	}
	return fmt.Sprintf("%s, $%dM by %s", name, g.Auction.CurrentBid, leader)
}

// componentsFor returns the buttons that make sense for g right now
func componentsFor(g *models.Game) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent

	switch {
	case g.Status == models.GameStatusLobby:
		buttons = append(buttons,
			button("Join", ButtonJoin, discordgo.PrimaryButton),
			button("Start", ButtonStart, discordgo.SuccessButton),
		)
	case g.Status != models.GameStatusPlaying:
		return nil
	case g.Auction.IsActive:
		buttons = append(buttons,
			button("Bid +10", ButtonBid10, discordgo.PrimaryButton),
			button("Bid +50", ButtonBid50, discordgo.PrimaryButton),
			button("Fold", ButtonFold, discordgo.SecondaryButton),
		)
	case g.TurnPhase == models.PhaseRoll:
		buttons = append(buttons, button("Roll", ButtonRoll, discordgo.PrimaryButton))
		if p := g.CurrentPlayer(); p != nil && p.IsJailed {
			buttons = append(buttons, button("Pay Bail", ButtonPayBail, discordgo.SecondaryButton))
		}
	case g.TurnPhase == models.PhaseAction:
		buttons = append(buttons,
			button("Buy", ButtonBuy, discordgo.SuccessButton),
			button("Decline", ButtonDecline, discordgo.DangerButton),
		)
	case g.TurnPhase == models.PhaseEnd:
		buttons = append(buttons, button("End Turn", ButtonEndTurn, discordgo.SecondaryButton))
	}

	if len(buttons) == 0 {
		return nil
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func button(label, customID string, style discordgo.ButtonStyle) discordgo.Button {
	return discordgo.Button{Label: label, Style: style, CustomID: customID}
}

// actionForButton maps a game button to the intent it submits
func actionForButton(customID string, g *models.Game) (models.Action, error) {
	switch customID {
	case ButtonStart:
		return models.Action{Type: models.ActionStartGame}, nil
	case ButtonRoll:
		return models.Action{Type: models.ActionRollDice}, nil
	case ButtonPayBail:
		return models.Action{Type: models.ActionPayBail}, nil
	case ButtonBuy:
		return models.Action{Type: models.ActionBuyProperty}, nil
	case ButtonDecline:
		return models.Action{Type: models.ActionDeclineProperty}, nil
	case ButtonEndTurn:
		return models.Action{Type: models.ActionEndTurn}, nil
	case ButtonBid10:
		return models.Action{Type: models.ActionBidAuction, Amount: g.Auction.CurrentBid + 10}, nil
	case ButtonBid50:
		return models.Action{Type: models.ActionBidAuction, Amount: g.Auction.CurrentBid + 50}, nil
	case ButtonFold:
		return models.Action{Type: models.ActionBidAuction, Fold: true}, nil
	}
	return models.Action{}, apperr.InvalidIntent("unknown button %s", customID)
}
