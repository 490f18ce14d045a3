package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"jopacoin/internal/database"
	"jopacoin/internal/wager"
	"jopacoin/pkg/config"
	"jopacoin/pkg/utils"
)

// CmdBet registra uma aposta na janela atual
// Uso: !bet <radiant|dire> <amount> [leverage]
func CmdBet(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Betting",
			"**Usage:** `!bet <radiant|dire> <amount> [leverage]`\n\n"+
				fmt.Sprintf("Leverage tiers: 1 (default), %s — leveraged losses can push you down to -%d %s.",
					tiersText(), config.Economy.MaxDebt, config.Bot.CurrencySymbol)))
		return
	}

	team := strings.ToLower(args[0])
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Invalid amount."))
		return
	}

	leverage := 1
	if len(args) >= 3 {
		leverage, err = strconv.Atoi(args[2])
		if err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Invalid leverage."))
			return
		}
	}

	result, err := wager.Place(m.GuildID, m.Author.ID, team, amount, leverage, time.Now())
	if err != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed(betErrorText(err)))
		return
	}

	desc := fmt.Sprintf("<@%s> bet **%d %s** on **%s**", m.Author.ID, amount, config.Bot.CurrencySymbol, team)
	if leverage > 1 {
		desc += fmt.Sprintf(" at **%dx leverage** (%d %s at risk)", leverage, result.Bet.EffectiveStake, config.Bot.CurrencySymbol)
	}
	desc += fmt.Sprintf("\nNew balance: **%d %s**", result.NewBalance, config.Bot.CurrencySymbol)
	s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Bet Placed!", desc))
}

func tiersText() string {
	parts := make([]string, 0, len(config.Economy.LeverageTiers))
	for _, t := range config.Economy.LeverageTiers {
		parts = append(parts, strconv.Itoa(t))
	}
	return strings.Join(parts, ", ")
}

// betErrorText traduz rejeições de negócio para o usuário
func betErrorText(err error) string {
	switch {
	case errors.Is(err, database.ErrNoPendingMatch):
		return "There is no match in progress. Use `!shuffle` first."
	case errors.Is(err, database.ErrBettingClosed):
		return "The betting window is closed."
	case errors.Is(err, database.ErrSideSwitch):
		return "You already have a bet on the other side this match (participants can only back their own team)."
	case errors.Is(err, database.ErrInsufficientFunds):
		return "Insufficient balance! Leverage > 1 lets you go into debt, if you dare."
	case errors.Is(err, database.ErrDebtLimitExceeded):
		return fmt.Sprintf("That bet would push you past the -%d %s debt limit.", config.Economy.MaxDebt, config.Bot.CurrencySymbol)
	case errors.Is(err, wager.ErrInvalidAmount):
		return "Bet amount must be positive."
	case errors.Is(err, wager.ErrInvalidTeam):
		return "Team must be `radiant` or `dire`."
	case errors.Is(err, wager.ErrInvalidLeverage):
		return fmt.Sprintf("Leverage must be 1 or one of: %s.", tiersText())
	default:
		return "Error placing bet."
	}
}

// CmdOdds mostra o pote atual e os multiplicadores implícitos
func CmdOdds(s *discordgo.Session, m *discordgo.MessageCreate) {
	odds, err := wager.GetPotOdds(m.GuildID)
	if err != nil {
		if wager.IsRejection(err) {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("There is no match in progress."))
		} else {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error reading pot odds."))
		}
		return
	}

	symbol := config.Bot.CurrencySymbol
	desc := fmt.Sprintf("**Mode:** %s | **Total pot:** %d %s | **Bets:** %d\n\n", odds.Mode, odds.TotalPool, symbol, odds.BetCount)
	desc += fmt.Sprintf("🟩 Radiant: **%d %s**", odds.RadiantTotal, symbol)
	if odds.RadiantMultiplier > 0 {
		desc += fmt.Sprintf(" (pays %.2fx)", odds.RadiantMultiplier)
	}
	desc += fmt.Sprintf("\n🟥 Dire: **%d %s**", odds.DireTotal, symbol)
	if odds.DireMultiplier > 0 {
		desc += fmt.Sprintf(" (pays %.2fx)", odds.DireMultiplier)
	}
	s.ChannelMessageSendEmbed(m.ChannelID, utils.GoldEmbed("Pot Odds", desc))
}

// CmdBets lista as apostas abertas da janela atual
func CmdBets(s *discordgo.Session, m *discordgo.MessageCreate) {
	bets, err := wager.GetPendingBets(m.GuildID)
	if err != nil {
		if wager.IsRejection(err) {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("There is no match in progress."))
		} else {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error listing bets."))
		}
		return
	}
	if len(bets) == 0 {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Open Bets", "No bets yet this window."))
		return
	}

	var sb strings.Builder
	for _, b := range bets {
		line := fmt.Sprintf("<@%s>: %d %s on **%s**", b.BettorID, b.Amount, config.Bot.CurrencySymbol, b.Team)
		if b.Leverage > 1 {
			line += fmt.Sprintf(" (%dx = %d at risk)", b.Leverage, b.EffectiveStake)
		}
		sb.WriteString(line + "\n")
	}
	s.ChannelMessageSendEmbed(m.ChannelID, utils.GoldEmbed("Open Bets", sb.String()))
}
