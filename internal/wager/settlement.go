package wager

import (
	"math"
	"time"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

// SettlementResult reports what a finalized window paid out
type SettlementResult struct {
	MatchID    string
	Mode       string
	Winner     string
	TotalPool  int
	WinnerPool int
	// Multiplier is the reported pool multiplier (total/winner pool);
	// zero when nothing was staked on the winning side
	Multiplier float64
	// Refunded is true when the pool had no winners and every stake was
	// returned instead of paid out
	Refunded bool
	// WinnerCount is the number of winning bets
	WinnerCount int
	// PlayerPayouts aggregates the credited amount per player (stacked
	// bets collapse into a single balance write)
	PlayerPayouts map[string]int
	// BetPayouts is the per-bet breakdown assigned to the bet rows
	BetPayouts []database.BetPayout
}

// Settle assigns the match to every open bet of the window and applies the
// computed payouts in one all-or-nothing transaction. Stakes were already
// debited at placement, so only credits flow here.
func Settle(guildID, matchID string, shuffleTS time.Time, winner, mode string) (*SettlementResult, error) {
	bets, err := database.GetOpenBets(guildID, shuffleTS)
	if err != nil {
		return nil, err
	}
	if len(bets) == 0 {
		// Tell a bet-less window apart from one that was already paid
		settled, err := database.CountSettledBets(guildID, shuffleTS)
		if err != nil {
			return nil, err
		}
		if settled > 0 {
			return nil, database.ErrAlreadySettled
		}
	}

	result := Compute(bets, winner, mode)
	result.MatchID = matchID

	if err := database.SettleBets(guildID, shuffleTS, matchID, result.BetPayouts, result.PlayerPayouts); err != nil {
		return nil, err
	}
	return result, nil
}

// Compute runs the payout math for a finalized window without touching the
// store. House mode pays each winner stake*(1+multiplier); pool mode splits
// the whole pot among winners proportionally, rounding UP per winner, and
// refunds everyone when nobody backed the winning side. The ceil rounding
// means pool payouts can exceed the pot by up to (winners-1) units; a
// winner is never paid less than their proportional share.
func Compute(bets []database.Bet, winner, mode string) *SettlementResult {
	result := &SettlementResult{
		Mode:          mode,
		Winner:        winner,
		PlayerPayouts: make(map[string]int),
	}

	for _, b := range bets {
		result.TotalPool += b.EffectiveStake
		if b.Team == winner {
			result.WinnerPool += b.EffectiveStake
			result.WinnerCount++
		}
	}

	if mode == database.BetModeHouse {
		for _, b := range bets {
			payout := 0
			if b.Team == winner {
				payout = b.EffectiveStake + int(math.Round(float64(b.EffectiveStake)*config.Economy.HouseMultiplier))
			}
			result.BetPayouts = append(result.BetPayouts, database.BetPayout{BetID: b.ID, Payout: payout})
			if payout > 0 {
				result.PlayerPayouts[b.BettorID] += payout
			}
		}
		result.Multiplier = 1 + config.Economy.HouseMultiplier
		return result
	}

	// Pool (parimutuel) mode
	if result.WinnerPool == 0 {
		// No winners: refund every bettor their exact effective stake
		result.Refunded = true
		for _, b := range bets {
			result.BetPayouts = append(result.BetPayouts, database.BetPayout{BetID: b.ID, Payout: b.EffectiveStake})
			result.PlayerPayouts[b.BettorID] += b.EffectiveStake
		}
		return result
	}

	result.Multiplier = float64(result.TotalPool) / float64(result.WinnerPool)
	for _, b := range bets {
		payout := 0
		if b.Team == winner {
			// ceil(stake_i / winner_pool * total_pool) in integer math
			payout = (b.EffectiveStake*result.TotalPool + result.WinnerPool - 1) / result.WinnerPool
		}
		result.BetPayouts = append(result.BetPayouts, database.BetPayout{BetID: b.ID, Payout: payout})
		if payout > 0 {
			result.PlayerPayouts[b.BettorID] += payout
		}
	}
	return result
}

// TotalPaid sums everything the settlement credited back out
func (r *SettlementResult) TotalPaid() int {
	total := 0
	for _, p := range r.BetPayouts {
		total += p.Payout
	}
	return total
}
