package wager

import (
	"errors"
	"testing"
	"time"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	config.DBType = "sqlite"
	config.ApplyEconomyDefaults()
	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	database.DB = db
	t.Cleanup(func() { db.Close() })
}

func openWindow(t *testing.T, guildID string) *database.PendingMatch {
	t.Helper()
	now := time.Now()
	pm := &database.PendingMatch{
		GuildID:          guildID,
		RadiantIDs:       []string{"p1", "p2", "p3", "p4", "p5"},
		DireIDs:          []string{"p6", "p7", "p8", "p9", "p10"},
		ShuffleTS:        now,
		BetLockUntil:     now.Add(5 * time.Minute),
		BetMode:          database.BetModePool,
		Submissions:      make(map[string]database.Submission),
		AbortSubmissions: make(map[string]database.Submission),
	}
	if err := database.SavePendingMatch(pm); err != nil {
		t.Fatalf("save pending match: %v", err)
	}
	return pm
}

func fund(t *testing.T, playerID string, amount int) {
	t.Helper()
	if err := database.AddCoins(playerID, amount); err != nil {
		t.Fatalf("fund %s: %v", playerID, err)
	}
}

func TestPlaceValidation(t *testing.T) {
	setupTestDB(t)
	openWindow(t, "g1")
	fund(t, "sam", 100)

	cases := []struct {
		name     string
		team     string
		amount   int
		leverage int
		want     error
	}{
		{"zero amount", database.TeamRadiant, 0, 1, ErrInvalidAmount},
		{"negative amount", database.TeamRadiant, -5, 1, ErrInvalidAmount},
		{"bad team", "tie", 10, 1, ErrInvalidTeam},
		{"leverage not a tier", database.TeamRadiant, 10, 4, ErrInvalidLeverage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Place("g1", "sam", tc.team, tc.amount, tc.leverage, time.Now())
			if !errors.Is(err, tc.want) {
				t.Errorf("Place() error = %v, want %v", err, tc.want)
			}
			if !IsRejection(err) {
				t.Errorf("validation failures must be rejections, got %T", err)
			}
		})
	}

	if got := database.GetBalance("sam"); got != 100 {
		t.Errorf("balance changed to %d after rejected bets, want 100 untouched", got)
	}
}

func TestPlaceNoPendingMatch(t *testing.T) {
	setupTestDB(t)
	fund(t, "sam", 100)

	_, err := Place("g1", "sam", database.TeamRadiant, 10, 1, time.Now())
	if !errors.Is(err, database.ErrNoPendingMatch) {
		t.Fatalf("Place() error = %v, want ErrNoPendingMatch", err)
	}
}

func TestPlaceAfterLockRejected(t *testing.T) {
	setupTestDB(t)
	pm := openWindow(t, "g1")
	fund(t, "sam", 100)

	_, err := Place("g1", "sam", database.TeamRadiant, 10, 1, pm.BetLockUntil.Add(time.Second))
	if !errors.Is(err, database.ErrBettingClosed) {
		t.Fatalf("Place() after lock error = %v, want ErrBettingClosed", err)
	}
	if got := database.GetBalance("sam"); got != 100 {
		t.Errorf("balance = %d after rejected bet, want 100", got)
	}
}

func TestPlaceDebitsExactlyOnce(t *testing.T) {
	setupTestDB(t)
	openWindow(t, "g1")
	fund(t, "sam", 100)

	result, err := Place("g1", "sam", database.TeamDire, 30, 1, time.Now())
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if result.NewBalance != 70 {
		t.Errorf("reported balance = %d, want 70", result.NewBalance)
	}
	if got := database.GetBalance("sam"); got != 70 {
		t.Errorf("stored balance = %d, want 70", got)
	}
	if result.Bet.EffectiveStake != 30 {
		t.Errorf("effective stake = %d, want 30", result.Bet.EffectiveStake)
	}
}

func TestPlaceParticipantSideLock(t *testing.T) {
	setupTestDB(t)
	openWindow(t, "g1") // p1 plays radiant
	fund(t, "p1", 100)

	if _, err := Place("g1", "p1", database.TeamDire, 10, 1, time.Now()); !errors.Is(err, database.ErrSideSwitch) {
		t.Fatalf("participant betting against own team: error = %v, want ErrSideSwitch", err)
	}
	if _, err := Place("g1", "p1", database.TeamRadiant, 10, 1, time.Now()); err != nil {
		t.Fatalf("participant backing own team: error = %v, want nil", err)
	}
}

func TestPlaceStackingSameSideOnly(t *testing.T) {
	setupTestDB(t)
	openWindow(t, "g1")
	fund(t, "sam", 100)

	if _, err := Place("g1", "sam", database.TeamRadiant, 10, 1, time.Now()); err != nil {
		t.Fatalf("first bet: %v", err)
	}
	if _, err := Place("g1", "sam", database.TeamDire, 10, 1, time.Now()); !errors.Is(err, database.ErrSideSwitch) {
		t.Fatalf("opposite-side stack: error = %v, want ErrSideSwitch", err)
	}
	if _, err := Place("g1", "sam", database.TeamRadiant, 5, 1, time.Now()); err != nil {
		t.Fatalf("same-side stack: error = %v, want nil", err)
	}
	if got := database.GetBalance("sam"); got != 85 {
		t.Errorf("balance = %d after 10+5 staked, want 85", got)
	}
}

func TestPlaceLeverageAndDebtFloor(t *testing.T) {
	setupTestDB(t)
	openWindow(t, "g1")
	config.Economy.MaxDebt = 500
	config.Economy.LeverageTiers = []int{2, 3, 5}

	fund(t, "sam", 50)

	// Leverage 1 can never go negative
	if _, err := Place("g1", "sam", database.TeamRadiant, 60, 1, time.Now()); !errors.Is(err, database.ErrInsufficientFunds) {
		t.Fatalf("unleveraged overdraft: error = %v, want ErrInsufficientFunds", err)
	}

	// Leverage 5 on 100 risks 500: 50 - 500 = -450, within the floor
	result, err := Place("g1", "sam", database.TeamRadiant, 100, 5, time.Now())
	if err != nil {
		t.Fatalf("leveraged bet within floor: %v", err)
	}
	if result.NewBalance != -450 {
		t.Errorf("balance = %d, want -450", result.NewBalance)
	}

	// Next leveraged bet would cross -500
	if _, err := Place("g1", "sam", database.TeamRadiant, 30, 2, time.Now()); !errors.Is(err, database.ErrDebtLimitExceeded) {
		t.Fatalf("bet past debt floor: error = %v, want ErrDebtLimitExceeded", err)
	}
}

func TestSettleRoundTrip(t *testing.T) {
	setupTestDB(t)
	pm := openWindow(t, "g1")
	fund(t, "alice", 100)
	fund(t, "bob", 100)

	if _, err := Place("g1", "alice", database.TeamRadiant, 30, 1, time.Now()); err != nil {
		t.Fatalf("alice bet: %v", err)
	}
	if _, err := Place("g1", "bob", database.TeamDire, 60, 1, time.Now()); err != nil {
		t.Fatalf("bob bet: %v", err)
	}

	result, err := Settle("g1", "match-1", pm.ShuffleTS, database.TeamRadiant, database.BetModePool)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if result.TotalPool != 90 || result.WinnerPool != 30 {
		t.Fatalf("pools = %d/%d, want 90/30", result.TotalPool, result.WinnerPool)
	}

	// alice staked 30 of 100 and won the whole 90 pot
	if got := database.GetBalance("alice"); got != 160 {
		t.Errorf("alice balance = %d, want 160", got)
	}
	if got := database.GetBalance("bob"); got != 40 {
		t.Errorf("bob balance = %d, want 40", got)
	}

	// A second settlement of the same window must not pay twice
	if _, err := Settle("g1", "match-2", pm.ShuffleTS, database.TeamRadiant, database.BetModePool); !errors.Is(err, database.ErrAlreadySettled) {
		t.Fatalf("double settle error = %v, want ErrAlreadySettled", err)
	}
	if got := database.GetBalance("alice"); got != 160 {
		t.Errorf("alice balance after double settle = %d, want unchanged 160", got)
	}
}

func TestPlaceRejectedAfterWindowSettled(t *testing.T) {
	setupTestDB(t)
	pm := openWindow(t, "g1")
	fund(t, "alice", 100)
	fund(t, "carol", 100)

	if _, err := Place("g1", "alice", database.TeamRadiant, 30, 1, time.Now()); err != nil {
		t.Fatalf("alice bet: %v", err)
	}
	if _, err := Settle("g1", "match-1", pm.ShuffleTS, database.TeamRadiant, database.BetModePool); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// The snapshot is still on disk and its lock time looks open, but the
	// window's bets are already paid: a late stake would never be settled
	if _, err := Place("g1", "carol", database.TeamDire, 50, 1, time.Now()); !errors.Is(err, database.ErrBettingClosed) {
		t.Fatalf("bet into settled window: error = %v, want ErrBettingClosed", err)
	}
	if got := database.GetBalance("carol"); got != 100 {
		t.Errorf("carol balance = %d after rejected bet, want 100 untouched", got)
	}
}

func TestPotOddsIgnoreSettledWindows(t *testing.T) {
	setupTestDB(t)
	pm := openWindow(t, "g1")
	fund(t, "alice", 100)

	if _, err := Place("g1", "alice", database.TeamRadiant, 40, 1, time.Now()); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if _, err := Settle("g1", "match-1", pm.ShuffleTS, database.TeamDire, database.BetModePool); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := database.DeletePendingMatch("g1"); err != nil {
		t.Fatalf("delete pending: %v", err)
	}

	// A fresh window must start with an empty pot even though settled bet
	// rows from the previous window still exist
	openWindow(t, "g1")
	odds, err := GetPotOdds("g1")
	if err != nil {
		t.Fatalf("GetPotOdds() error = %v", err)
	}
	if odds.TotalPool != 0 || odds.BetCount != 0 {
		t.Errorf("new window pot = %d (%d bets), want empty", odds.TotalPool, odds.BetCount)
	}
}

func TestRefundRestoresStakes(t *testing.T) {
	setupTestDB(t)
	pm := openWindow(t, "g1")
	fund(t, "alice", 100)

	if _, err := Place("g1", "alice", database.TeamRadiant, 25, 2, time.Now()); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if got := database.GetBalance("alice"); got != 50 {
		t.Fatalf("balance after 25x2 stake = %d, want 50", got)
	}

	refunds, err := Refund("g1", pm.ShuffleTS)
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if refunds["alice"] != 50 {
		t.Errorf("refund = %d, want the full effective stake 50", refunds["alice"])
	}
	if got := database.GetBalance("alice"); got != 100 {
		t.Errorf("balance after refund = %d, want 100", got)
	}

	bets, err := GetPendingBets("g1")
	if err != nil {
		t.Fatalf("GetPendingBets() error = %v", err)
	}
	if len(bets) != 0 {
		t.Errorf("open bets after refund = %d, want 0", len(bets))
	}
}
