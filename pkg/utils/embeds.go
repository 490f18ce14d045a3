package utils

import "github.com/bwmarrin/discordgo"

const (
	ColorGold    = 0xFFD700
	ColorGreen   = 0x00FF00
	ColorRed     = 0xFF0000
	ColorBlue    = 0x0000FF
	ColorOrange  = 0xFFA500
	ColorRadiant = 0x92A525
	ColorDire    = 0xC23C2A
)

func NewEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{}
}

func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: description,
		Color:       ColorRed,
	}
}

func SuccessEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ " + title,
		Description: description,
		Color:       ColorGreen,
	}
}

func InfoEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "ℹ️ " + title,
		Description: description,
		Color:       ColorBlue,
	}
}

func GoldEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "💰 " + title,
		Description: description,
		Color:       ColorGold,
	}
}

func WarnEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚠️ " + title,
		Description: description,
		Color:       ColorOrange,
	}
}

// TeamColor retorna a cor de embed do time
func TeamColor(team string) int {
	if team == "radiant" {
		return ColorRadiant
	}
	return ColorDire
}
