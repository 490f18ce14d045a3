package shuffle

import (
	"errors"
	"math/rand"
	"sort"

	"jopacoin/internal/database"
)

// TeamSize is the number of players per side
const TeamSize = 5

var ErrNotEnoughPlayers = errors.New("need at least 10 players to shuffle")

// Assignment is the shuffler's output: two balanced rosters, per-player
// roles and whoever did not make the cut
type Assignment struct {
	RadiantIDs  []string
	DireIDs     []string
	ExcludedIDs []string
	Roles       map[string]string
}

// Shuffler turns a validated player pool into two balanced teams. Its
// internals are opaque to the match core.
type Shuffler interface {
	Shuffle(pool []string) (*Assignment, error)
}

var roleNames = [TeamSize]string{"carry", "mid", "offlane", "soft support", "hard support"}

// RatingShuffler picks ten players at random from the pool and splits them
// with a snake draft over their stored ratings
type RatingShuffler struct{}

func (r *RatingShuffler) Shuffle(pool []string) (*Assignment, error) {
	if len(pool) < 2*TeamSize {
		return nil, ErrNotEnoughPlayers
	}

	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	picked := shuffled[:2*TeamSize]
	excluded := append([]string(nil), shuffled[2*TeamSize:]...)

	type rated struct {
		id     string
		rating float64
	}
	players := make([]rated, 0, len(picked))
	for _, id := range picked {
		p, err := database.GetPlayer(id)
		if err != nil {
			return nil, err
		}
		players = append(players, rated{id: id, rating: p.Rating})
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].rating > players[j].rating
	})

	// Snake draft: 1st and 4th strongest to radiant, 2nd and 3rd to dire,
	// repeating down the list
	a := &Assignment{
		ExcludedIDs: excluded,
		Roles:       make(map[string]string),
	}
	for i, p := range players {
		if i%4 == 0 || i%4 == 3 {
			a.RadiantIDs = append(a.RadiantIDs, p.id)
		} else {
			a.DireIDs = append(a.DireIDs, p.id)
		}
	}

	for i, id := range a.RadiantIDs {
		a.Roles[id] = roleNames[i]
	}
	for i, id := range a.DireIDs {
		a.Roles[id] = roleNames[i]
	}
	return a, nil
}
