package database

import (
	"testing"
	"time"

	"jopacoin/pkg/config"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	config.DBType = "sqlite"
	config.ApplyEconomyDefaults()
	db, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	DB = db
	t.Cleanup(func() { db.Close() })
}

func TestAddCoinsTracksLowestBalance(t *testing.T) {
	setupTestDB(t)

	if err := AddCoins("alice", 50); err != nil {
		t.Fatalf("AddCoins: %v", err)
	}
	if err := AddCoins("alice", -120); err != nil {
		t.Fatalf("AddCoins negative: %v", err)
	}
	if err := AddCoins("alice", 200); err != nil {
		t.Fatalf("AddCoins recover: %v", err)
	}

	p, err := GetPlayer("alice")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p.Balance != 130 {
		t.Errorf("balance = %d, want 130", p.Balance)
	}
	if p.LowestBalance != -70 {
		t.Errorf("lowest balance = %d, want -70 (deepest point of the dip)", p.LowestBalance)
	}
}

func TestRemoveCoinsRefusesOverdraft(t *testing.T) {
	setupTestDB(t)

	if err := AddCoins("alice", 30); err != nil {
		t.Fatalf("AddCoins: %v", err)
	}
	if err := RemoveCoins("alice", 50); err == nil {
		t.Fatal("RemoveCoins past zero succeeded, want error")
	}
	if got := GetBalance("alice"); got != 30 {
		t.Errorf("balance = %d after refused removal, want 30", got)
	}
	if err := RemoveCoins("alice", 30); err != nil {
		t.Fatalf("RemoveCoins to exactly zero: %v", err)
	}
}

func TestEnsurePlayerDefaults(t *testing.T) {
	setupTestDB(t)

	p, err := GetPlayer("fresh")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p.Balance != 0 || p.Rating != 1500 || p.Deviation != 350 {
		t.Errorf("fresh player = balance %d rating %.0f deviation %.0f, want 0/1500/350",
			p.Balance, p.Rating, p.Deviation)
	}
}

func TestGuildPoolAccumulates(t *testing.T) {
	setupTestDB(t)

	if err := AddToGuildPool("g1", 20); err != nil {
		t.Fatalf("AddToGuildPool: %v", err)
	}
	if err := AddToGuildPool("g1", 15); err != nil {
		t.Fatalf("AddToGuildPool: %v", err)
	}
	if got := GetGuildPool("g1"); got != 35 {
		t.Errorf("guild pool = %d, want 35", got)
	}
	if got := GetGuildPool("other"); got != 0 {
		t.Errorf("untouched guild pool = %d, want 0", got)
	}
}

func TestPendingMatchRoundTrip(t *testing.T) {
	setupTestDB(t)

	now := time.Now()
	pm := &PendingMatch{
		GuildID:      "g1",
		RadiantIDs:   []string{"a", "b"},
		DireIDs:      []string{"c", "d"},
		ExcludedIDs:  []string{"e"},
		ShuffleTS:    now,
		BetLockUntil: now.Add(5 * time.Minute),
		BetMode:      BetModePool,
		Submissions:  map[string]Submission{"a": {Vote: TeamRadiant}},
		ChannelID:    "chan-1",
	}
	if err := SavePendingMatch(pm); err != nil {
		t.Fatalf("SavePendingMatch: %v", err)
	}

	got, err := GetPendingMatch("g1")
	if err != nil {
		t.Fatalf("GetPendingMatch: %v", err)
	}
	if got == nil {
		t.Fatal("GetPendingMatch returned nil for a saved match")
	}
	if got.BetMode != BetModePool || got.ChannelID != "chan-1" {
		t.Errorf("round trip lost fields: mode %q channel %q", got.BetMode, got.ChannelID)
	}
	if got.Submissions["a"].Vote != TeamRadiant {
		t.Errorf("submissions lost in round trip: %+v", got.Submissions)
	}
	if got.AbortSubmissions == nil {
		t.Error("decode must initialize an empty abort submission map")
	}

	// Upsert replaces, never duplicates
	pm.BetMode = BetModeHouse
	if err := SavePendingMatch(pm); err != nil {
		t.Fatalf("SavePendingMatch upsert: %v", err)
	}
	got, err = GetPendingMatch("g1")
	if err != nil || got == nil {
		t.Fatalf("GetPendingMatch after upsert: %v", err)
	}
	if got.BetMode != BetModeHouse {
		t.Errorf("upsert did not replace: mode = %q", got.BetMode)
	}

	if err := DeletePendingMatch("g1"); err != nil {
		t.Fatalf("DeletePendingMatch: %v", err)
	}
	got, err = GetPendingMatch("g1")
	if err != nil {
		t.Fatalf("GetPendingMatch after delete: %v", err)
	}
	if got != nil {
		t.Error("pending match survived deletion")
	}
}

func TestPendingMatchSide(t *testing.T) {
	pm := &PendingMatch{
		RadiantIDs: []string{"a", "b"},
		DireIDs:    []string{"c"},
	}
	if got := pm.Side("a"); got != TeamRadiant {
		t.Errorf("Side(a) = %q, want radiant", got)
	}
	if got := pm.Side("c"); got != TeamDire {
		t.Errorf("Side(c) = %q, want dire", got)
	}
	if got := pm.Side("stranger"); got != "" {
		t.Errorf("Side(stranger) = %q, want empty", got)
	}
	if got := len(pm.Participants()); got != 3 {
		t.Errorf("Participants() = %d ids, want 3", got)
	}
}

func TestRecordMatchIncrementsCounters(t *testing.T) {
	setupTestDB(t)

	m := &MatchRecord{
		ID:          "m1",
		GuildID:     "g1",
		Winner:      TeamRadiant,
		RadiantIDs:  []string{"a"},
		DireIDs:     []string{"b"},
		FinalizedAt: time.Now(),
	}
	if err := RecordMatch(m, []string{"a"}, []string{"b"}); err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}

	winner, err := GetPlayer("a")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if winner.Wins != 1 || winner.GamesPlayed != 1 {
		t.Errorf("winner counters = %dW %d games, want 1/1", winner.Wins, winner.GamesPlayed)
	}
	loser, err := GetPlayer("b")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if loser.Losses != 1 || loser.GamesPlayed != 1 {
		t.Errorf("loser counters = %dL %d games, want 1/1", loser.Losses, loser.GamesPlayed)
	}

	stored, err := GetMatch("m1")
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if stored.Winner != TeamRadiant {
		t.Errorf("stored winner = %q, want radiant", stored.Winner)
	}
}

func TestLeaderboardExcludesBot(t *testing.T) {
	setupTestDB(t)
	BotUserID = "bot"
	t.Cleanup(func() { BotUserID = "" })

	if err := AddCoins("bot", 1000); err != nil {
		t.Fatalf("AddCoins: %v", err)
	}
	if err := AddCoins("alice", 50); err != nil {
		t.Fatalf("AddCoins: %v", err)
	}

	users, err := GetLeaderboard(10)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(users) != 1 || users[0].ID != "alice" {
		t.Fatalf("leaderboard = %+v, want only alice; the bot account must not rank", users)
	}
}

func TestWebhookLifecycle(t *testing.T) {
	setupTestDB(t)

	url, err := GetWebhook("nobody")
	if err != nil || url != "" {
		t.Fatalf("GetWebhook(nobody) = %q, %v; want empty, nil", url, err)
	}

	if err := SetWebhook("alice", "https://example.com/hook"); err != nil {
		t.Fatalf("SetWebhook: %v", err)
	}
	url, err = GetWebhook("alice")
	if err != nil || url != "https://example.com/hook" {
		t.Fatalf("GetWebhook = %q, %v", url, err)
	}

	if err := DeleteWebhook("alice"); err != nil {
		t.Fatalf("DeleteWebhook: %v", err)
	}
	url, err = GetWebhook("alice")
	if err != nil || url != "" {
		t.Fatalf("GetWebhook after delete = %q, %v; want empty", url, err)
	}
}
