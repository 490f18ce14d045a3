package wager

import (
	"errors"
	"fmt"

	"jopacoin/internal/database"
)

// Validation rejections raised before any mutation happens
var (
	ErrInvalidAmount   = errors.New("bet amount must be positive")
	ErrInvalidTeam     = errors.New("team must be radiant or dire")
	ErrInvalidLeverage = errors.New("leverage is not an allowed tier")
)

// Rejection is an expected business-rule rejection. Callers branch on it
// (errors.As) to tell user mistakes apart from infrastructure faults,
// which are returned as plain errors.
type Rejection struct {
	Reason error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("bet rejected: %v", r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

func reject(reason error) error {
	return &Rejection{Reason: reason}
}

// IsRejection reports whether err is a business-rule rejection
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// wrapStoreErr converts the store's business sentinels into Rejections and
// passes infrastructure errors through untouched
func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, database.ErrNoPendingMatch),
		errors.Is(err, database.ErrBettingClosed),
		errors.Is(err, database.ErrSideSwitch),
		errors.Is(err, database.ErrInsufficientFunds),
		errors.Is(err, database.ErrDebtLimitExceeded):
		return reject(err)
	default:
		return err
	}
}
