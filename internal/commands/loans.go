package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"jopacoin/internal/database"
	"jopacoin/internal/debt"
	"jopacoin/pkg/config"
	"jopacoin/pkg/utils"
)

// CmdLoan trata os subcomandos de empréstimo
// Uso: !loan take <amount> | !loan pay | !loan status
func CmdLoan(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		loanHelp(s, m)
		return
	}

	switch args[0] {
	case "take", "pegar":
		cmdLoanTake(s, m, args)
	case "pay", "pagar":
		cmdLoanPay(s, m)
	case "status":
		cmdLoanStatus(s, m)
	default:
		loanHelp(s, m)
	}
}

func loanHelp(s *discordgo.Session, m *discordgo.MessageCreate) {
	s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Loan System",
		fmt.Sprintf("**Usage:**\n"+
			"`!loan take <amount>` — borrow up to %d %s at %.0f%% fee\n"+
			"`!loan pay` — repay principal + fee early\n"+
			"`!loan status` — see your loan state\n\n"+
			"Unpaid loans are **collected automatically** the next time you play a finalized match, even into debt.",
			config.Economy.MaxLoanAmount, config.Bot.CurrencySymbol, config.Economy.LoanFeeRate*100)))
}

func cmdLoanTake(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		loanHelp(s, m)
		return
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Invalid amount."))
		return
	}

	result, err := debt.TakeLoan(m.Author.ID, amount, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, debt.ErrInvalidLoanAmount):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed(
				fmt.Sprintf("Loan amount must be between 1 and %d %s.", config.Economy.MaxLoanAmount, config.Bot.CurrencySymbol)))
		case errors.Is(err, database.ErrLoanOutstanding):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("You already have an outstanding loan! Pay it first."))
		case errors.Is(err, database.ErrLoanCooldown):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Your loan cooldown has not expired yet."))
		default:
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error processing loan."))
		}
		return
	}

	s.ChannelMessageSendEmbed(m.ChannelID, utils.GoldEmbed("Loan Granted",
		fmt.Sprintf("<@%s> borrowed **%d %s**.\nYou owe **%d %s** (fee %d). It will be collected at your next finalized match.",
			m.Author.ID, result.Amount, config.Bot.CurrencySymbol, result.Owed, config.Bot.CurrencySymbol, result.Fee)))
}

func cmdLoanPay(s *discordgo.Session, m *discordgo.MessageCreate) {
	paid, err := debt.RepayLoan(m.Author.ID, m.GuildID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNoLoan):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("You don't have an outstanding loan."))
		case errors.Is(err, database.ErrInsufficientFunds):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Insufficient balance to repay. It will be collected at your next match."))
		default:
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error processing payment."))
		}
		return
	}

	s.ChannelMessageSendEmbed(m.ChannelID, utils.SuccessEmbed("Loan Repaid!",
		fmt.Sprintf("<@%s> paid **%d %s**. You're debt free! 🎉", m.Author.ID, paid, config.Bot.CurrencySymbol)))
}

func cmdLoanStatus(s *discordgo.Session, m *discordgo.MessageCreate) {
	rec, err := debt.GetLoan(m.Author.ID)
	if err != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error reading loan state."))
		return
	}

	symbol := config.Bot.CurrencySymbol
	if rec.Principal == 0 {
		desc := "No outstanding loan."
		if rec.CooldownUntil.Valid && time.Now().Before(rec.CooldownUntil.Time) {
			desc += fmt.Sprintf("\nNext loan available <t:%d:R>.", rec.CooldownUntil.Time.Unix())
		}
		desc += fmt.Sprintf("\nLifetime: borrowed %d %s, repaid %d %s.", rec.TotalTaken, symbol, rec.TotalPaid, symbol)
		s.ChannelMessageSendEmbed(m.ChannelID, utils.InfoEmbed("Loan Status", desc))
		return
	}

	s.ChannelMessageSendEmbed(m.ChannelID, utils.WarnEmbed("Loan Status",
		fmt.Sprintf("Outstanding: **%d %s** (principal %d + fee %d).\nCollected automatically at your next finalized match.",
			rec.Principal+rec.Fee, symbol, rec.Principal, rec.Fee)))
}

// CmdBankruptcy zera um saldo negativo em troca de penalidade de bônus
func CmdBankruptcy(s *discordgo.Session, m *discordgo.MessageCreate) {
	forgiven, err := debt.Declare(m.Author.ID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotInDebt):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("You can only declare bankruptcy with a negative balance."))
		case errors.Is(err, database.ErrBankruptcyCooldown):
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("You declared bankruptcy too recently."))
		default:
			s.ChannelMessageSendEmbed(m.ChannelID, utils.ErrorEmbed("Error declaring bankruptcy."))
		}
		return
	}

	s.ChannelMessageSendEmbed(m.ChannelID, utils.WarnEmbed("Bankruptcy Declared",
		fmt.Sprintf("<@%s> had **%d %s** of debt forgiven.\nWin bonuses are reduced for your next **%d** games.",
			m.Author.ID, forgiven, config.Bot.CurrencySymbol, config.Economy.BankruptcyPenaltyGames)))
}
