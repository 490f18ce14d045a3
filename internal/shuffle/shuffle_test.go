package shuffle

import (
	"errors"
	"testing"

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

func poolOf(n int) []string {
	pool := make([]string, n)
	for i := range pool {
		pool[i] = string(rune('a' + i))
	}
	return pool
}

func TestShuffleRejectsSmallPool(t *testing.T) {
	setupTestDB(t)
	s := &RatingShuffler{}

	if _, err := s.Shuffle(poolOf(9)); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("Shuffle(9 players) error = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestShuffleSplitsTenPlusExcess(t *testing.T) {
	setupTestDB(t)
	s := &RatingShuffler{}

	a, err := s.Shuffle(poolOf(13))
	if err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	if len(a.RadiantIDs) != TeamSize || len(a.DireIDs) != TeamSize {
		t.Fatalf("teams = %d/%d, want %d/%d", len(a.RadiantIDs), len(a.DireIDs), TeamSize, TeamSize)
	}
	if len(a.ExcludedIDs) != 3 {
		t.Errorf("excluded = %d, want 3", len(a.ExcludedIDs))
	}

	// No player appears twice across the three groups
	seen := make(map[string]bool)
	for _, group := range [][]string{a.RadiantIDs, a.DireIDs, a.ExcludedIDs} {
		for _, id := range group {
			if seen[id] {
				t.Errorf("player %s assigned twice", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 13 {
		t.Errorf("assignment covers %d players, want all 13", len(seen))
	}
}

func TestShuffleAssignsDistinctRoles(t *testing.T) {
	setupTestDB(t)
	s := &RatingShuffler{}

	a, err := s.Shuffle(poolOf(10))
	if err != nil {
		t.Fatalf("Shuffle: %v", err)
	}

	for _, team := range [][]string{a.RadiantIDs, a.DireIDs} {
		roles := make(map[string]bool)
		for _, id := range team {
			role, ok := a.Roles[id]
			if !ok {
				t.Errorf("player %s has no role", id)
				continue
			}
			if roles[role] {
				t.Errorf("role %q assigned twice on one team", role)
			}
			roles[role] = true
		}
	}
}

func TestShuffleBalancesByRating(t *testing.T) {
	setupTestDB(t)
	s := &RatingShuffler{}

	pool := poolOf(10)
	// Give each player a distinct stored rating
	for i, id := range pool {
		if err := database.UpdateRating(id, float64(1000+100*i), 200, 0.06); err != nil {
			t.Fatalf("seed rating: %v", err)
		}
	}

	a, err := s.Shuffle(pool)
	if err != nil {
		t.Fatalf("Shuffle: %v", err)
	}

	sum := func(ids []string) float64 {
		var total float64
		for _, id := range ids {
			p, err := database.GetPlayer(id)
			if err != nil {
				t.Fatalf("GetPlayer: %v", err)
			}
			total += p.Rating
		}
		return total
	}

	diff := sum(a.RadiantIDs) - sum(a.DireIDs)
	if diff < 0 {
		diff = -diff
	}
	// Snake draft over ratings 1000..1900 keeps the team sums within one
	// draft step of each other
	if diff > 100 {
		t.Errorf("rating sums differ by %.0f, snake draft should keep it within 100", diff)
	}
}
