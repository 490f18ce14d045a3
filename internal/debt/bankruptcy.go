package debt

import (
	"math"
	"time"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

// Declare wipes the player's negative balance in exchange for a scaled-down
// win bonus over the next configured number of games
func Declare(playerID string, now time.Time) (int, error) {
	cooldown := time.Duration(config.Economy.BankruptcyCooldownHours) * time.Hour
	return database.DeclareBankruptcy(playerID, config.Economy.BankruptcyPenaltyGames, cooldown, now)
}

// ScaleWinBonus applies the bankruptcy penalty to a win bonus. While the
// player still has penalty games remaining the bonus is scaled down by the
// configured factor (floor rounding, never below zero).
func ScaleWinBonus(playerID string, bonus int) (int, bool, error) {
	rec, err := database.GetBankruptcy(playerID)
	if err != nil {
		return bonus, false, err
	}
	if rec.PenaltyGamesRemaining <= 0 {
		return bonus, false, nil
	}
	scaled := int(math.Floor(float64(bonus) * config.Economy.BankruptcyBonusFactor))
	if scaled < 0 {
		scaled = 0
	}
	return scaled, true, nil
}

// DecrementPenalties ticks every participant's penalty counter down by
// exactly one per match played (win or lose), floored at zero
func DecrementPenalties(participants []string) error {
	return database.DecrementBankruptcyPenalties(participants)
}

// GetState exposes the player's bankruptcy record
func GetState(playerID string) (*database.BankruptcyRecord, error) {
	return database.GetBankruptcy(playerID)
}
