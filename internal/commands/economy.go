package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
	"jopacoin/pkg/utils"
)

// CmdBalance mostra o saldo e o histórico do autor
func CmdBalance(s *discordgo.Session, m *discordgo.MessageCreate) {
	player, err := database.GetPlayer(m.Author.ID)
	if err != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error reading your balance."))
		return
	}

	symbol := config.Bot.CurrencySymbol
	desc := fmt.Sprintf("**Balance:** %d %s\n", player.Balance, symbol)
	if player.Balance < 0 {
		desc += fmt.Sprintf("💸 You are **%d %s** in debt.\n", -player.Balance, symbol)
	}
	desc += fmt.Sprintf("**Record:** %dW / %dL (%d games)\n", player.Wins, player.Losses, player.GamesPlayed)
	desc += fmt.Sprintf("**Rating:** %.0f ± %.0f\n", player.Rating, player.Deviation)
	desc += fmt.Sprintf("**Lowest balance ever:** %d %s", player.LowestBalance, symbol)

	s.ChannelMessageSendEmbed(m.ChannelID, utils.GoldEmbed(m.Author.Username, desc))
}

// CmdLeaderboard mostra o ranking de saldos da guild
func CmdLeaderboard(s *discordgo.Session, m *discordgo.MessageCreate) {
	users, err := database.GetLeaderboard(10)
	if err != nil || len(users) == 0 {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Leaderboard", "Nobody has played yet."))
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	for i, u := range users {
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		sb.WriteString(fmt.Sprintf("%s <@%s> — **%d %s** (%dW/%dL)\n",
			prefix, u.ID, u.Balance, config.Bot.CurrencySymbol, u.Wins, u.Losses))
	}
	s.ChannelMessageSendEmbed(m.ChannelID, utils.GoldEmbed("Leaderboard", sb.String()))
}

// CmdGuildPool mostra o pool compartilhado da guild (taxas de empréstimo)
func CmdGuildPool(s *discordgo.Session, m *discordgo.MessageCreate) {
	balance := database.GetGuildPool(m.GuildID)
	s.ChannelMessageSendEmbed(m.ChannelID, utils.GoldEmbed("Guild Pool",
		fmt.Sprintf("The guild's shared pool holds **%d %s** (funded by loan fees).", balance, config.Bot.CurrencySymbol)))
}
