package debt

import (
	"errors"
	"testing"
	"time"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

func TestDeclareRequiresDebt(t *testing.T) {
	setupTestDB(t)

	if _, err := Declare("alice", time.Now()); !errors.Is(err, database.ErrNotInDebt) {
		t.Fatalf("bankruptcy at zero balance: error = %v, want ErrNotInDebt", err)
	}

	if err := database.AddCoins("alice", 50); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, err := Declare("alice", time.Now()); !errors.Is(err, database.ErrNotInDebt) {
		t.Fatalf("bankruptcy with positive balance: error = %v, want ErrNotInDebt", err)
	}
}

func TestDeclareForgivesDebtAndSetsPenalty(t *testing.T) {
	setupTestDB(t)
	config.Economy.BankruptcyPenaltyGames = 5

	if err := database.AddCoins("alice", -300); err != nil {
		t.Fatalf("sink into debt: %v", err)
	}

	forgiven, err := Declare("alice", time.Now())
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if forgiven != 300 {
		t.Errorf("forgiven = %d, want 300", forgiven)
	}
	if got := database.GetBalance("alice"); got != 0 {
		t.Errorf("balance after bankruptcy = %d, want 0", got)
	}

	rec, err := GetState("alice")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if rec.PenaltyGamesRemaining != 5 {
		t.Errorf("penalty games = %d, want 5", rec.PenaltyGamesRemaining)
	}
}

func TestDeclareCooldown(t *testing.T) {
	setupTestDB(t)
	config.Economy.BankruptcyCooldownHours = 72

	now := time.Now()
	if err := database.AddCoins("alice", -100); err != nil {
		t.Fatalf("debt: %v", err)
	}
	if _, err := Declare("alice", now); err != nil {
		t.Fatalf("first declare: %v", err)
	}

	if err := database.AddCoins("alice", -100); err != nil {
		t.Fatalf("debt again: %v", err)
	}
	if _, err := Declare("alice", now.Add(time.Hour)); !errors.Is(err, database.ErrBankruptcyCooldown) {
		t.Fatalf("declare inside cooldown: error = %v, want ErrBankruptcyCooldown", err)
	}
	if _, err := Declare("alice", now.Add(73*time.Hour)); err != nil {
		t.Fatalf("declare after cooldown: %v", err)
	}
}

func TestScaleWinBonus(t *testing.T) {
	setupTestDB(t)
	config.Economy.BankruptcyBonusFactor = 0.5

	// No penalty: full bonus
	bonus, penalized, err := ScaleWinBonus("alice", 10)
	if err != nil {
		t.Fatalf("ScaleWinBonus: %v", err)
	}
	if bonus != 10 || penalized {
		t.Errorf("unpenalized bonus = %d (penalized %v), want 10/false", bonus, penalized)
	}

	if err := database.AddCoins("alice", -100); err != nil {
		t.Fatalf("debt: %v", err)
	}
	if _, err := Declare("alice", time.Now()); err != nil {
		t.Fatalf("declare: %v", err)
	}

	bonus, penalized, err = ScaleWinBonus("alice", 11)
	if err != nil {
		t.Fatalf("ScaleWinBonus: %v", err)
	}
	if bonus != 5 || !penalized {
		t.Errorf("penalized bonus = %d (penalized %v), want floor(11*0.5) = 5/true", bonus, penalized)
	}
}

func TestDecrementPenaltiesFloorsAtZero(t *testing.T) {
	setupTestDB(t)
	config.Economy.BankruptcyPenaltyGames = 2

	if err := database.AddCoins("alice", -10); err != nil {
		t.Fatalf("debt: %v", err)
	}
	if _, err := Declare("alice", time.Now()); err != nil {
		t.Fatalf("declare: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := DecrementPenalties([]string{"alice", "bob"}); err != nil {
			t.Fatalf("DecrementPenalties: %v", err)
		}
	}

	rec, err := GetState("alice")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if rec.PenaltyGamesRemaining != 0 {
		t.Errorf("penalty games = %d after over-decrement, want floor at 0", rec.PenaltyGamesRemaining)
	}
}

func TestSplitGarnished(t *testing.T) {
	cases := []struct {
		name          string
		balanceBefore int
		credit        int
		garnished     int
		net           int
	}{
		{"no debt", 50, 10, 0, 10},
		{"credit fully swallowed", -30, 10, 10, 0},
		{"credit clears debt with change", -7, 10, 7, 3},
		{"exactly clears debt", -10, 10, 10, 0},
		{"zero credit", -10, 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			garnished, net := SplitGarnished(tc.balanceBefore, tc.credit)
			if garnished != tc.garnished || net != tc.net {
				t.Errorf("SplitGarnished(%d, %d) = %d, %d; want %d, %d",
					tc.balanceBefore, tc.credit, garnished, net, tc.garnished, tc.net)
			}
		})
	}
}
