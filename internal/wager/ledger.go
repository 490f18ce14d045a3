package wager

import (
	"time"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

// PlaceBetResult is what a successful placement reports back
type PlaceBetResult struct {
	Bet        *database.Bet
	NewBalance int
}

// Place validates and places a bet on the guild's open betting window.
// Static validation happens here; everything that can race (window still
// open, side lock, balance floor) is re-checked inside the placement
// transaction against persisted state.
func Place(guildID, bettorID, team string, amount, leverage int, now time.Time) (*PlaceBetResult, error) {
	if amount <= 0 {
		return nil, reject(ErrInvalidAmount)
	}
	if team != database.TeamRadiant && team != database.TeamDire {
		return nil, reject(ErrInvalidTeam)
	}
	if !config.Economy.IsLeverageAllowed(leverage) {
		return nil, reject(ErrInvalidLeverage)
	}

	bet, newBalance, err := database.PlaceBet(guildID, bettorID, team, amount, leverage, config.Economy.MaxDebt, now)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	return &PlaceBetResult{Bet: bet, NewBalance: newBalance}, nil
}

// PotOdds summarizes the live pot for the guild's current window. It only
// counts unassigned bets watermarked by the window's shuffle timestamp, so
// it never leaks stakes from a superseded window.
type PotOdds struct {
	Mode              string
	RadiantTotal      int
	DireTotal         int
	TotalPool         int
	RadiantMultiplier float64
	DireMultiplier    float64
	BetCount          int
}

// GetPotOdds computes the current pot totals and implied multipliers
func GetPotOdds(guildID string) (*PotOdds, error) {
	pm, err := database.GetPendingMatch(guildID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, reject(database.ErrNoPendingMatch)
	}

	bets, err := database.GetOpenBets(guildID, pm.ShuffleTS)
	if err != nil {
		return nil, err
	}

	odds := &PotOdds{Mode: pm.BetMode, BetCount: len(bets)}
	for _, b := range bets {
		if b.Team == database.TeamRadiant {
			odds.RadiantTotal += b.EffectiveStake
		} else {
			odds.DireTotal += b.EffectiveStake
		}
	}
	odds.TotalPool = odds.RadiantTotal + odds.DireTotal

	if pm.BetMode == database.BetModeHouse {
		odds.RadiantMultiplier = 1 + config.Economy.HouseMultiplier
		odds.DireMultiplier = 1 + config.Economy.HouseMultiplier
		return odds, nil
	}

	if odds.RadiantTotal > 0 {
		odds.RadiantMultiplier = float64(odds.TotalPool) / float64(odds.RadiantTotal)
	}
	if odds.DireTotal > 0 {
		odds.DireMultiplier = float64(odds.TotalPool) / float64(odds.DireTotal)
	}
	return odds, nil
}

// GetPendingBets lists the unsettled bets of the guild's current window
func GetPendingBets(guildID string) ([]database.Bet, error) {
	pm, err := database.GetPendingMatch(guildID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, reject(database.ErrNoPendingMatch)
	}
	return database.GetOpenBets(guildID, pm.ShuffleTS)
}

// Refund reverses every open bet of the window and deletes it (abort path).
// Returns the per-player refunded totals for reporting.
func Refund(guildID string, shuffleTS time.Time) (map[string]int, error) {
	return database.RefundBets(guildID, shuffleTS)
}
