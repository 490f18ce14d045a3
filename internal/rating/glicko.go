package rating

import (
	"log"
	"math"

	"jopacoin/internal/database"
)

// PlayerRating is the oracle's per-player output
type PlayerRating struct {
	ID         string
	Rating     float64
	Deviation  float64
	Volatility float64
}

// Oracle updates skill ratings after a finalized match. It runs after the
// ledger has settled; a failing oracle never rolls back money movement.
type Oracle interface {
	Update(winners, losers []string) ([]PlayerRating, error)
}

// GlickoOracle is the default Glicko-2 style implementation backed by the
// players table
type GlickoOracle struct{}

const (
	glickoQ      = math.Ln10 / 400
	minDeviation = 50
	maxDeviation = 350
)

func g(deviation float64) float64 {
	return 1 / math.Sqrt(1+3*glickoQ*glickoQ*deviation*deviation/(math.Pi*math.Pi))
}

func expectedScore(rating, oppRating, oppDeviation float64) float64 {
	return 1 / (1 + math.Pow(10, -g(oppDeviation)*(rating-oppRating)/400))
}

// Update treats the match as one game of each player against the opposing
// team's average, then persists the new ratings
func (o *GlickoOracle) Update(winners, losers []string) ([]PlayerRating, error) {
	winnerAvg, winnerDev, err := teamAverages(winners)
	if err != nil {
		return nil, err
	}
	loserAvg, loserDev, err := teamAverages(losers)
	if err != nil {
		return nil, err
	}

	var updated []PlayerRating
	for _, id := range winners {
		pr, err := updatePlayer(id, loserAvg, loserDev, 1)
		if err != nil {
			return updated, err
		}
		updated = append(updated, pr)
	}
	for _, id := range losers {
		pr, err := updatePlayer(id, winnerAvg, winnerDev, 0)
		if err != nil {
			return updated, err
		}
		updated = append(updated, pr)
	}
	return updated, nil
}

func teamAverages(ids []string) (avgRating, avgDeviation float64, err error) {
	if len(ids) == 0 {
		return 1500, 350, nil
	}
	for _, id := range ids {
		p, err := database.GetPlayer(id)
		if err != nil {
			return 0, 0, err
		}
		avgRating += p.Rating
		avgDeviation += p.Deviation
	}
	n := float64(len(ids))
	return avgRating / n, avgDeviation / n, nil
}

func updatePlayer(id string, oppRating, oppDeviation, score float64) (PlayerRating, error) {
	p, err := database.GetPlayer(id)
	if err != nil {
		return PlayerRating{}, err
	}

	e := expectedScore(p.Rating, oppRating, oppDeviation)
	gOpp := g(oppDeviation)
	dSquaredInv := glickoQ * glickoQ * gOpp * gOpp * e * (1 - e)

	denom := 1/(p.Deviation*p.Deviation) + dSquaredInv
	newDeviation := math.Sqrt(1 / denom)
	if newDeviation < minDeviation {
		newDeviation = minDeviation
	}
	if newDeviation > maxDeviation {
		newDeviation = maxDeviation
	}

	newRating := p.Rating + glickoQ/denom*gOpp*(score-e)

	// Volatility drifts toward how surprising the result was
	surprise := math.Abs(score - e)
	newVolatility := p.Volatility + 0.01*(surprise-0.5)
	if newVolatility < 0.03 {
		newVolatility = 0.03
	}
	if newVolatility > 0.1 {
		newVolatility = 0.1
	}

	if err := database.UpdateRating(id, newRating, newDeviation, newVolatility); err != nil {
		return PlayerRating{}, err
	}

	log.Printf("[Rating] %s: %.0f -> %.0f (rd %.0f)", id, p.Rating, newRating, newDeviation)
	return PlayerRating{ID: id, Rating: newRating, Deviation: newDeviation, Volatility: newVolatility}, nil
}
