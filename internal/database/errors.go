package database

import "errors"

// Rejeições de regra de negócio. São esperadas e devem ser tratadas pelo
// chamador; qualquer outro erro vindo deste pacote é falha de infraestrutura.
var (
	ErrNoPendingMatch    = errors.New("no pending match for this guild")
	ErrAlreadySettled    = errors.New("bet window already settled")
	ErrBettingClosed     = errors.New("betting window is closed")
	ErrSideSwitch        = errors.New("bettor already has a bet on the other team")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrDebtLimitExceeded = errors.New("debt limit exceeded")
	ErrLoanOutstanding   = errors.New("player already has an outstanding loan")
	ErrLoanCooldown      = errors.New("loan cooldown has not expired")
	ErrNoLoan            = errors.New("player has no outstanding loan")
	ErrNotInDebt         = errors.New("player balance is not negative")
	ErrBankruptcyCooldown = errors.New("bankruptcy cooldown has not expired")
)
