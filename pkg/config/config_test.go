package config

import "testing"

func TestIsLeverageAllowed(t *testing.T) {
	e := &EconomyConfig{LeverageTiers: []int{2, 3, 5}}

	cases := []struct {
		leverage int
		want     bool
	}{
		{1, true}, // always allowed, even outside the tiers
		{2, true},
		{3, true},
		{4, false},
		{5, true},
		{0, false},
		{-2, false},
		{10, false},
	}
	for _, tc := range cases {
		if got := e.IsLeverageAllowed(tc.leverage); got != tc.want {
			t.Errorf("IsLeverageAllowed(%d) = %v, want %v", tc.leverage, got, tc.want)
		}
	}
}

func TestApplyEconomyDefaults(t *testing.T) {
	Economy = EconomyConfig{}
	Bot = GeneralConfig{}
	ApplyEconomyDefaults()

	if Economy.MinQuorum != 3 {
		t.Errorf("MinQuorum default = %d, want 3", Economy.MinQuorum)
	}
	if Economy.MaxDebt != 500 {
		t.Errorf("MaxDebt default = %d, want 500", Economy.MaxDebt)
	}
	if Economy.LoanFeeRate != 0.20 {
		t.Errorf("LoanFeeRate default = %v, want 0.20", Economy.LoanFeeRate)
	}
	if len(Economy.LeverageTiers) == 0 {
		t.Error("LeverageTiers default must not be empty")
	}
	if Bot.DefaultBetMode != "pool" {
		t.Errorf("DefaultBetMode default = %q, want pool", Bot.DefaultBetMode)
	}

	// Explicit values survive
	Economy = EconomyConfig{MinQuorum: 5, MaxDebt: 50}
	ApplyEconomyDefaults()
	if Economy.MinQuorum != 5 || Economy.MaxDebt != 50 {
		t.Errorf("explicit values overwritten: quorum %d debt %d", Economy.MinQuorum, Economy.MaxDebt)
	}
}

func TestIsChannelAllowed(t *testing.T) {
	c := &GeneralConfig{}
	if !c.IsChannelAllowed("any") {
		t.Error("empty allow-list must allow every channel")
	}

	c.AllowedChannels = []string{"chan-1", "chan-2"}
	if !c.IsChannelAllowed("chan-2") {
		t.Error("listed channel rejected")
	}
	if c.IsChannelAllowed("chan-3") {
		t.Error("unlisted channel allowed")
	}
}
