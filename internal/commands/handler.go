package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"jopacoin/internal/scrim"
	"jopacoin/pkg/config"
)

// Dependências injetadas pelo main.go
var (
	Orchestrator *scrim.Orchestrator
	Lobby        *scrim.Lobby
)

func MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	if !strings.HasPrefix(m.Content, "!") {
		return
	}

	if !config.Bot.IsChannelAllowed(m.ChannelID) {
		return
	}

	args := strings.Fields(m.Content)
	command := strings.ToLower(args[0])
	args = args[1:]

	switch command {
	case "!help", "!ajuda":
		CmdHelp(s, m)
	case "!join", "!entrar":
		CmdJoin(s, m)
	case "!leave", "!sair":
		CmdLeave(s, m)
	case "!lobby":
		CmdLobby(s, m)
	case "!shuffle", "!embaralhar":
		CmdShuffle(s, m, args)
	case "!result", "!resultado":
		CmdResult(s, m, args)
	case "!abort", "!abortar":
		CmdAbort(s, m)
	case "!match", "!partida":
		CmdMatch(s, m)
	case "!bet", "!apostar":
		CmdBet(s, m, args)
	case "!odds":
		CmdOdds(s, m)
	case "!bets", "!apostas":
		CmdBets(s, m)
	case "!balance", "!saldo", "!coins", "!money":
		CmdBalance(s, m)
	case "!leaderboard", "!rank", "!top":
		CmdLeaderboard(s, m)
	case "!pool":
		CmdGuildPool(s, m)
	case "!loan", "!emprestimo":
		CmdLoan(s, m, args)
	case "!bankruptcy", "!falencia":
		CmdBankruptcy(s, m)
	case "!apikey":
		CmdAPIKey(s, m, args)
	case "!webhook":
		CmdWebhook(s, m, args)
	}
}

// isAdmin verifica se o autor tem permissão de administrador no canal
func isAdmin(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}
