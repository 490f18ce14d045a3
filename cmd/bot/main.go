package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"jopacoin/internal/api"
	"jopacoin/internal/commands"
	"jopacoin/internal/database"
	"jopacoin/internal/rating"
	"jopacoin/internal/scrim"
	"jopacoin/internal/shuffle"
	"jopacoin/pkg/config"
	"jopacoin/pkg/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// Load Configuration
	config.Load()

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		log.Fatal("DISCORD_TOKEN not found in environment variables")
	}

	database.Initialize()
	defer database.DB.Close()

	// Wire the match orchestrator and the lobby
	orchestrator := scrim.New(&shuffle.RatingShuffler{}, &rating.GlickoOracle{})
	commands.Orchestrator = orchestrator
	commands.Lobby = scrim.NewLobby()

	// Start API Server
	if config.Bot.EnableAPI {
		go api.Start()
	} else {
		log.Println("API is disabled in config.json")
	}

	// Create Discord Session
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Fatal("Error creating Discord session: ", err)
	}

	// Register Handlers
	dg.AddHandler(commands.MessageCreate)

	// Announce in the match channel when a betting window closes
	orchestrator.OnBetsLocked = func(guildID string) {
		pm, err := database.GetPendingMatch(guildID)
		if err != nil || pm == nil || pm.ChannelID == "" {
			return
		}
		dg.ChannelMessageSendEmbed(pm.ChannelID, utils.InfoEmbed("Bets Locked 🔒",
			"The betting window is closed. Play the match, then report with `!result <radiant|dire>`."))
	}

	// Identify Intent
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	// Open Websocket
	err = dg.Open()
	if err != nil {
		log.Fatal("Error opening connection: ", err)
	}

	// Keep the bot's own account out of the leaderboard
	if dg.State != nil && dg.State.User != nil {
		database.BotUserID = dg.State.User.ID
	}

	// Restore pending matches and their bet-lock timers after a restart
	if err := orchestrator.LoadPending(); err != nil {
		log.Printf("Error restoring pending matches: %v", err)
	}

	log.Println("Bot is now running. Press CTRL-C to exit.")

	// Wait here until CTRL-C or other term signal is received.
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Cleanly close down the Discord session.
	dg.Close()
}
