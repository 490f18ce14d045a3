package wager

import (
	"testing"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

func bet(id int64, bettor, team string, stake int) database.Bet {
	return database.Bet{ID: id, BettorID: bettor, Team: team, Amount: stake, Leverage: 1, EffectiveStake: stake}
}

func TestComputeHouseMode(t *testing.T) {
	config.ApplyEconomyDefaults()
	config.Economy.HouseMultiplier = 1.0

	bets := []database.Bet{
		bet(1, "alice", database.TeamRadiant, 10),
		bet(2, "bob", database.TeamDire, 25),
	}

	result := Compute(bets, database.TeamRadiant, database.BetModeHouse)

	if got := result.PlayerPayouts["alice"]; got != 20 {
		t.Errorf("winner payout = %d, want 20 (stake back plus 1:1 winnings)", got)
	}
	if got, ok := result.PlayerPayouts["bob"]; ok && got != 0 {
		t.Errorf("loser payout = %d, want 0", got)
	}
	if result.Multiplier != 2.0 {
		t.Errorf("multiplier = %v, want 2.0", result.Multiplier)
	}
}

func TestComputeHouseLeverage(t *testing.T) {
	config.ApplyEconomyDefaults()
	config.Economy.HouseMultiplier = 1.0

	b := database.Bet{ID: 1, BettorID: "alice", Team: database.TeamRadiant, Amount: 10, Leverage: 3, EffectiveStake: 30}
	result := Compute([]database.Bet{b}, database.TeamRadiant, database.BetModeHouse)

	if got := result.PlayerPayouts["alice"]; got != 60 {
		t.Errorf("leveraged payout = %d, want 60 (effective stake doubled)", got)
	}
}

func TestComputePoolExactSplit(t *testing.T) {
	config.ApplyEconomyDefaults()

	bets := []database.Bet{
		bet(1, "r1", database.TeamRadiant, 10),
		bet(2, "r2", database.TeamRadiant, 20),
		bet(3, "d1", database.TeamDire, 30),
	}

	result := Compute(bets, database.TeamRadiant, database.BetModePool)

	if result.TotalPool != 60 || result.WinnerPool != 30 {
		t.Fatalf("pools = %d/%d, want 60/30", result.TotalPool, result.WinnerPool)
	}
	if got := result.PlayerPayouts["r1"]; got != 20 {
		t.Errorf("r1 payout = %d, want 20", got)
	}
	if got := result.PlayerPayouts["r2"]; got != 40 {
		t.Errorf("r2 payout = %d, want 40", got)
	}
	if result.TotalPaid() != 60 {
		t.Errorf("total paid = %d, want exactly the pot (60)", result.TotalPaid())
	}
}

func TestComputePoolCeilRounding(t *testing.T) {
	config.ApplyEconomyDefaults()

	bets := []database.Bet{
		bet(1, "r1", database.TeamRadiant, 10),
		bet(2, "r2", database.TeamRadiant, 10),
		bet(3, "r3", database.TeamRadiant, 10),
		bet(4, "d1", database.TeamDire, 70),
	}

	result := Compute(bets, database.TeamRadiant, database.BetModePool)

	for _, id := range []string{"r1", "r2", "r3"} {
		if got := result.PlayerPayouts[id]; got != 34 {
			t.Errorf("%s payout = %d, want ceil(10/30*100) = 34", id, got)
		}
	}
	// Ceil rounding overpays the pot by at most winners-1
	if paid := result.TotalPaid(); paid != 102 {
		t.Errorf("total paid = %d, want 102 (overpay of exactly winners-1 = 2)", paid)
	}
}

func TestComputePoolNoWinnersRefunds(t *testing.T) {
	config.ApplyEconomyDefaults()

	bets := []database.Bet{
		bet(1, "d1", database.TeamDire, 40),
		bet(2, "d2", database.TeamDire, 15),
	}

	result := Compute(bets, database.TeamRadiant, database.BetModePool)

	if !result.Refunded {
		t.Fatal("expected a full refund when nobody backed the winner")
	}
	if got := result.PlayerPayouts["d1"]; got != 40 {
		t.Errorf("d1 refund = %d, want exact stake 40", got)
	}
	if got := result.PlayerPayouts["d2"]; got != 15 {
		t.Errorf("d2 refund = %d, want exact stake 15", got)
	}
	if result.TotalPaid() != result.TotalPool {
		t.Errorf("refund paid %d, pot was %d; refunds must conserve the pot",
			result.TotalPaid(), result.TotalPool)
	}
}

func TestComputePoolOverpayBound(t *testing.T) {
	config.ApplyEconomyDefaults()

	cases := []struct {
		name string
		bets []database.Bet
	}{
		{"uneven thirds", []database.Bet{
			bet(1, "a", database.TeamRadiant, 7),
			bet(2, "b", database.TeamRadiant, 13),
			bet(3, "c", database.TeamRadiant, 1),
			bet(4, "d", database.TeamDire, 79),
		}},
		{"single winner", []database.Bet{
			bet(1, "a", database.TeamRadiant, 3),
			bet(2, "b", database.TeamDire, 97),
		}},
		{"primes", []database.Bet{
			bet(1, "a", database.TeamRadiant, 11),
			bet(2, "b", database.TeamRadiant, 17),
			bet(3, "c", database.TeamRadiant, 23),
			bet(4, "d", database.TeamDire, 41),
			bet(5, "e", database.TeamDire, 5),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Compute(tc.bets, database.TeamRadiant, database.BetModePool)
			overpay := result.TotalPaid() - result.TotalPool
			if overpay < 0 {
				t.Errorf("settlement underpays the pot by %d; winners must never be shortchanged", -overpay)
			}
			if overpay > result.WinnerCount-1 {
				t.Errorf("overpay = %d, must be at most winners-1 = %d", overpay, result.WinnerCount-1)
			}
			// Every winner gets at least their proportional share
			for _, b := range tc.bets {
				if b.Team != database.TeamRadiant {
					continue
				}
				fair := b.EffectiveStake * result.TotalPool / result.WinnerPool
				if got := result.PlayerPayouts[b.BettorID]; got < fair {
					t.Errorf("%s payout %d below proportional share %d", b.BettorID, got, fair)
				}
			}
		})
	}
}

func TestComputeStackedBetsAggregatePerPlayer(t *testing.T) {
	config.ApplyEconomyDefaults()

	bets := []database.Bet{
		bet(1, "a", database.TeamRadiant, 10),
		bet(2, "a", database.TeamRadiant, 20),
		bet(3, "b", database.TeamDire, 30),
	}

	result := Compute(bets, database.TeamRadiant, database.BetModePool)

	if len(result.BetPayouts) != 3 {
		t.Fatalf("bet payouts = %d rows, want one per bet", len(result.BetPayouts))
	}
	if got := result.PlayerPayouts["a"]; got != 60 {
		t.Errorf("stacked payouts collapse to %d, want 60 (20 + 40)", got)
	}
}
