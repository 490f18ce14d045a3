package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"jopacoin/internal/database"
	"jopacoin/internal/webhook"
	"jopacoin/pkg/utils"
)

// CmdWebhook gerencia a URL de webhook do jogador (notificações de apostas liquidadas)
// Uso: !webhook set <url> | !webhook test | !webhook delete
func CmdWebhook(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Webhooks",
			"`!webhook set <url>` — get a POST when your bets settle\n`!webhook test` — send a test payload\n`!webhook delete` — stop notifications"))
		return
	}

	switch args[0] {
	case "set":
		if len(args) < 2 || !strings.HasPrefix(args[1], "https://") {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Provide an https:// URL."))
			return
		}
		if err := database.SetWebhook(m.Author.ID, args[1]); err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error saving webhook."))
			return
		}
		s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Webhook Set",
			"You will receive a POST whenever one of your bets is settled."))

	case "test":
		url, err := database.GetWebhook(m.Author.ID)
		if err != nil || url == "" {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("No webhook configured. Use `!webhook set <url>` first."))
			return
		}
		if err := webhook.TestWebhook(url); err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Test delivery failed: "+err.Error()))
			return
		}
		s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Webhook OK", "Test payload delivered."))

	case "delete":
		if err := database.DeleteWebhook(m.Author.ID); err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error deleting webhook."))
			return
		}
		s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Webhook Deleted", "Notifications disabled."))
	}
}
