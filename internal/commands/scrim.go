package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"jopacoin/internal/database"
	"jopacoin/internal/scrim"
	"jopacoin/internal/shuffle"
	"jopacoin/pkg/config"
	"jopacoin/pkg/utils"
)

// CmdJoin adiciona o autor ao lobby da guild
func CmdJoin(s *discordgo.Session, m *discordgo.MessageCreate) {
	count, err := Lobby.Join(m.GuildID, m.Author.ID)
	if err != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("You are already in the lobby!"))
		return
	}
	s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Joined Lobby",
		fmt.Sprintf("<@%s> joined! Lobby: **%d/%d**", m.Author.ID, count, 2*shuffle.TeamSize)))
}

// CmdLeave remove o autor do lobby da guild
func CmdLeave(s *discordgo.Session, m *discordgo.MessageCreate) {
	count, err := Lobby.Leave(m.GuildID, m.Author.ID)
	if err != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("You are not in the lobby."))
		return
	}
	s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Left Lobby",
		fmt.Sprintf("<@%s> left. Lobby: **%d/%d**", m.Author.ID, count, 2*shuffle.TeamSize)))
}

// CmdLobby mostra o lobby atual
func CmdLobby(s *discordgo.Session, m *discordgo.MessageCreate) {
	players := Lobby.Players(m.GuildID)
	if len(players) == 0 {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Lobby", "The lobby is empty. Use `!join` to enter."))
		return
	}
	var sb strings.Builder
	for i, id := range players {
		sb.WriteString(fmt.Sprintf("%d. <@%s>\n", i+1, id))
	}
	s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed(
		fmt.Sprintf("Lobby (%d/%d)", len(players), 2*shuffle.TeamSize), sb.String()))
}

// CmdShuffle embaralha o lobby em dois times e abre a janela de apostas
// Uso: !shuffle [house|pool]
func CmdShuffle(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	betMode := config.Bot.DefaultBetMode
	if len(args) >= 1 {
		betMode = strings.ToLower(args[0])
	}

	pool := Lobby.Players(m.GuildID)
	pm, err := Orchestrator.Shuffle(m.GuildID, pool, betMode, m.ChannelID)
	if err != nil {
		switch {
		case errors.Is(err, scrim.ErrMatchInProgress):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("A match is already in progress! Use `!result` or `!abort` first."))
		case errors.Is(err, shuffle.ErrNotEnoughPlayers):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed(
				fmt.Sprintf("Need %d players in the lobby (currently %d). Use `!join`.", 2*shuffle.TeamSize, len(pool))))
		default:
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error shuffling the lobby."))
		}
		return
	}

	Lobby.Clear(m.GuildID)

	msg, _ := s.ChannelMessageSendEmbed(m.ChannelID, matchEmbed(pm))
	if msg != nil {
		pm.MessageID = msg.ID
		database.SavePendingMatch(pm)
	}
}

func matchEmbed(pm *database.PendingMatch) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "⚔️ Match Shuffled!",
		Description: fmt.Sprintf("Betting is **open** until <t:%d:R> (%s mode).\nBet with `!bet <radiant|dire> <amount> [leverage]`.",
			pm.BetLockUntil.Unix(), pm.BetMode),
		Color: utils.ColorGold,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🟩 Radiant",
				Value:  rosterList(pm.RadiantIDs, pm.RoleAssignments),
				Inline: true,
			},
			{
				Name:   "🟥 Dire",
				Value:  rosterList(pm.DireIDs, pm.RoleAssignments),
				Inline: true,
			},
			{
				Name:   "🪑 Bench",
				Value:  benchList(pm.ExcludedIDs),
				Inline: false,
			},
		},
	}
}

func rosterList(ids []string, roles map[string]string) string {
	var sb strings.Builder
	for _, id := range ids {
		if role, ok := roles[id]; ok {
			sb.WriteString(fmt.Sprintf("<@%s> — %s\n", id, role))
		} else {
			sb.WriteString(fmt.Sprintf("<@%s>\n", id))
		}
	}
	if sb.Len() == 0 {
		return "—"
	}
	return sb.String()
}

func benchList(ids []string) string {
	if len(ids) == 0 {
		return "Nobody benched."
	}
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(fmt.Sprintf("<@%s> ", id))
	}
	return sb.String()
}

// CmdResult registra um voto de resultado
// Uso: !result <radiant|dire>
func CmdResult(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Usage: `!result <radiant|dire>`"))
		return
	}
	vote := strings.ToLower(args[0])

	out, err := Orchestrator.SubmitResult(m.GuildID, m.Author.ID, vote, isAdmin(s, m))
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNoPendingMatch):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("There is no match in progress."))
		case errors.Is(err, scrim.ErrConflictingVote):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("You already reported the **other** outcome. Votes cannot be switched."))
		case errors.Is(err, scrim.ErrInvalidVote):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Vote must be `radiant` or `dire`."))
		case errors.Is(err, scrim.ErrFinalizeInProgress):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.WarnEmbed("Hold On", "A finalize is already running. Try again in a moment."))
		default:
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error recording your vote."))
		}
		return
	}

	if out.Finalize != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, finalizeEmbed(out.Finalize))
		return
	}

	s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Vote Recorded",
		fmt.Sprintf("Radiant **%d** x **%d** Dire (need %d matching votes, or one admin).",
			out.Tally.RadiantVotes, out.Tally.DireVotes, config.Economy.MinQuorum)))
}

// CmdAbort registra um voto de abort
func CmdAbort(s *discordgo.Session, m *discordgo.MessageCreate) {
	out, err := Orchestrator.SubmitAbort(m.GuildID, m.Author.ID, isAdmin(s, m))
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNoPendingMatch):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("There is no match in progress."))
		case errors.Is(err, scrim.ErrFinalizeInProgress):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.WarnEmbed("Hold On", "A finalize is already running. Try again in a moment."))
		default:
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error recording abort vote."))
		}
		return
	}

	if out.Refunds != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.WarnEmbed("Match Aborted",
			fmt.Sprintf("The match was aborted. **%d** bettors were refunded their full stakes.", len(out.Refunds))))
		return
	}

	s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Abort Vote Recorded",
		fmt.Sprintf("**%d/%d** abort votes (an admin abort is immediate).", out.Tally.Votes, config.Economy.MinQuorum)))
}

// CmdMatch mostra a partida em andamento
func CmdMatch(s *discordgo.Session, m *discordgo.MessageCreate) {
	pm, err := Orchestrator.GetPending(m.GuildID)
	if err != nil || pm == nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Match", "There is no match in progress. Use `!shuffle`."))
		return
	}
	s.ChannelMessageSendEmbed(m.ChannelID, matchEmbed(pm))
}

// finalizeEmbed monta o relatório de liquidação mostrado aos usuários
func finalizeEmbed(fr *scrim.FinalizeResult) *discordgo.MessageEmbed {
	symbol := config.Bot.CurrencySymbol

	var payoutText strings.Builder
	if fr.Settlement != nil {
		st := fr.Settlement
		if st.Refunded {
			payoutText.WriteString("Nobody backed the winner — all stakes refunded.\n")
		}
		for player, payout := range st.PlayerPayouts {
			payoutText.WriteString(fmt.Sprintf("<@%s>: +%d %s\n", player, payout, symbol))
		}
		if payoutText.Len() == 0 {
			payoutText.WriteString("No bets this match.\n")
		}
	}

	var bonusText strings.Builder
	for _, award := range fr.WinBonuses {
		line := fmt.Sprintf("<@%s>: +%d %s (win)", award.PlayerID, award.Amount, symbol)
		if award.Penalized {
			line += " ⚖️ bankruptcy penalty"
		}
		if award.Garnished > 0 {
			line += fmt.Sprintf(" — %d garnished, %d net", award.Garnished, award.Net)
		}
		bonusText.WriteString(line + "\n")
	}
	for _, award := range fr.Participation {
		bonusText.WriteString(fmt.Sprintf("<@%s>: +%d %s (participation)\n", award.PlayerID, award.Amount, symbol))
	}
	for _, award := range fr.Consolations {
		bonusText.WriteString(fmt.Sprintf("<@%s>: +%d %s (bench)\n", award.PlayerID, award.Amount, symbol))
	}
	if bonusText.Len() == 0 {
		bonusText.WriteString("—")
	}

	var loanText strings.Builder
	for _, rep := range fr.LoanRepayments {
		loanText.WriteString(fmt.Sprintf("<@%s>: -%d %s loan collected (fee %d to guild pool)\n",
			rep.PlayerID, rep.Owed, symbol, rep.Fee))
	}
	if loanText.Len() == 0 {
		loanText.WriteString("No outstanding loans.")
	}

	title := "🏆 Radiant Victory!"
	if fr.Winner == database.TeamDire {
		title = "🏆 Dire Victory!"
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: utils.TeamColor(fr.Winner),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💰 Bet Payouts", Value: payoutText.String(), Inline: false},
			{Name: "🎁 Bonuses", Value: bonusText.String(), Inline: false},
			{Name: "🏦 Loans", Value: loanText.String(), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Match ID: %s", fr.MatchID),
		},
	}
	if fr.Settlement != nil && fr.Settlement.Mode == database.BetModePool && fr.Settlement.Multiplier > 0 {
		embed.Description = fmt.Sprintf("Pool multiplier: **%.2fx**", fr.Settlement.Multiplier)
	}
	return embed
}

// CmdHelp mostra os comandos disponíveis
func CmdHelp(s *discordgo.Session, m *discordgo.MessageCreate) {
	help := "**Scrim**\n" +
		"`!join` / `!leave` / `!lobby` — manage the lobby\n" +
		"`!shuffle [house|pool]` — split teams and open betting\n" +
		"`!result <radiant|dire>` — report the outcome\n" +
		"`!abort` — vote to abort the match\n" +
		"`!match` — show the current match\n\n" +
		"**Betting**\n" +
		"`!bet <radiant|dire> <amount> [leverage]` — place a bet\n" +
		"`!odds` — current pot and multipliers\n" +
		"`!bets` — open bets this window\n\n" +
		"**Economy**\n" +
		"`!balance` `!leaderboard` `!pool`\n" +
		"`!loan take <amount>` `!loan pay` `!loan status`\n" +
		"`!bankruptcy` — wipe negative balance (with penalty)\n\n" +
		"**Integrations**\n" +
		"`!apikey create|list|delete` — HTTP API keys\n" +
		"`!webhook set|test|delete` — bet settlement notifications\n"
	s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed(config.Bot.BotName+" Commands", help))
}
