package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"jopacoin/internal/database"
	"jopacoin/pkg/utils"
)

// CmdAPIKey gerencia chaves da API HTTP
// Uso: !apikey create [name] | !apikey list | !apikey delete <prefix>
func CmdAPIKey(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("API Keys",
			"`!apikey create [name]` | `!apikey list` | `!apikey delete <prefix>`"))
		return
	}

	userID := m.Author.ID

	switch args[0] {
	case "create":
		key := uuid.New().String()
		name := "My Key"
		if len(args) > 1 {
			name = strings.Join(args[1:], " ")
		}

		if err := database.CreateAPIKey(key, userID, name); err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error creating API key."))
			return
		}

		// Enviar por DM para não vazar a chave no canal
		channel, err := s.UserChannelCreate(userID)
		if err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("I cannot DM you. Please open your DMs."))
			return
		}

		msg, err := s.ChannelMessageSend(channel.ID, fmt.Sprintf("🔑 **Your API Key** (%s)\n\n`%s`\n\n⚠️ This message will be deleted in 60 seconds.", name, key))
		if err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Failed to send DM."))
			return
		}

		s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Check your DM!", "I sent your API key securely."))

		go func() {
			time.Sleep(60 * time.Second)
			s.ChannelMessageDelete(channel.ID, msg.ID)
		}()

	case "list":
		keys, err := database.ListAPIKeys(userID)
		if err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error listing keys."))
			return
		}
		if len(keys) == 0 {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("No Keys", "You don't have any API keys."))
			return
		}

		var desc strings.Builder
		for _, k := range keys {
			masked := k.Key[:5] + "..."
			desc.WriteString(fmt.Sprintf("**%s**: `%s` (Created: %s)\n", k.Name, masked, k.CreatedAt.Format("2006-01-02")))
		}
		s.ChannelMessageSendEmbed(m.ChannelID, utils.GoldEmbed("Your API Keys", desc.String()))

	case "delete":
		if len(args) < 2 || len(args[1]) < 5 {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Provide at least the first 5 characters of the key."))
			return
		}
		if err := database.DeleteAPIKey(userID, args[1]); err != nil {
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error deleting key."))
			return
		}
		s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Key Deleted", "If a key matched that prefix, it has been revoked."))
	}
}
