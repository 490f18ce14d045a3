package debt

import (
	"errors"
	"math"
	"time"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

var ErrInvalidLoanAmount = errors.New("loan amount must be positive and within the configured maximum")

// LoanTakeResult is what a granted loan reports back
type LoanTakeResult struct {
	Amount        int
	Fee           int
	Owed          int
	CooldownUntil time.Time
}

// TakeLoan grants a loan to the player: credits the principal and records
// principal+fee as owed. One outstanding loan per player; the cooldown
// starts when the loan is taken.
func TakeLoan(playerID string, amount int, now time.Time) (*LoanTakeResult, error) {
	if amount <= 0 || amount > config.Economy.MaxLoanAmount {
		return nil, ErrInvalidLoanAmount
	}

	fee := int(math.Ceil(float64(amount) * config.Economy.LoanFeeRate))
	cooldownUntil := now.Add(time.Duration(config.Economy.LoanCooldownHours) * time.Hour)

	owed, err := database.TakeLoan(playerID, amount, fee, cooldownUntil, now)
	if err != nil {
		return nil, err
	}

	return &LoanTakeResult{
		Amount:        amount,
		Fee:           fee,
		Owed:          owed,
		CooldownUntil: cooldownUntil,
	}, nil
}

// RepayLoan settles the player's outstanding loan voluntarily. Fails with
// database.ErrInsufficientFunds when the balance cannot cover it.
func RepayLoan(playerID, guildID string) (int, error) {
	return database.RepayLoan(playerID, guildID)
}

// GetLoan exposes the player's loan state
func GetLoan(playerID string) (*database.LoanRecord, error) {
	return database.GetLoan(playerID)
}

// LoanRepayment records one forced settlement-time repayment
type LoanRepayment struct {
	PlayerID string
	Owed     int
	Fee      int
}

// ResolveLoansAtSettlement force-repays the outstanding loan of every
// participant of a finalized match. The debit is unconditional and may
// push the balance further negative; the fee lands in the guild's shared
// pool. Each repayment is its own transaction (commit-forward).
func ResolveLoansAtSettlement(guildID string, participants []string) ([]LoanRepayment, error) {
	var repayments []LoanRepayment
	for _, playerID := range participants {
		rec, err := database.GetLoan(playerID)
		if err != nil {
			return repayments, err
		}
		if rec.Principal == 0 {
			continue
		}
		fee := rec.Fee
		owed, err := database.ForceRepayLoan(playerID, guildID)
		if err != nil {
			if errors.Is(err, database.ErrNoLoan) {
				continue
			}
			return repayments, err
		}
		repayments = append(repayments, LoanRepayment{PlayerID: playerID, Owed: owed, Fee: fee})
	}
	return repayments, nil
}
