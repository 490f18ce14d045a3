package scrim

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"jopacoin/internal/database"
	"jopacoin/internal/debt"
	"jopacoin/internal/rating"
	"jopacoin/internal/shuffle"
	"jopacoin/internal/wager"
	"jopacoin/internal/webhook"
	"jopacoin/pkg/config"
)

var (
	// ErrMatchInProgress is returned when a shuffle is attempted while the
	// guild already has a pending match
	ErrMatchInProgress = errors.New("a match is already in progress for this guild")

	// ErrFinalizeInProgress is the fail-fast conflict for a second
	// concurrent finalize/abort attempt; retryable
	ErrFinalizeInProgress = errors.New("finalize already in progress")
)

// Orchestrator composes shuffle -> bet window -> consensus -> settlement ->
// debt resolution -> rating update -> teardown, one pending match per guild.
// The database is the source of truth; anything held in memory here is a
// cache or a timer handle.
type Orchestrator struct {
	shuffler shuffle.Shuffler
	oracle   rating.Oracle

	mu     sync.Mutex
	guilds map[string]*guildState

	// OnBetsLocked is called (fire and forget) when a guild's betting
	// window closes; set by the presentation layer
	OnBetsLocked func(guildID string)
}

type guildState struct {
	// finalizeMu serializes finalize/abort so at most one runs to
	// completion; a concurrent attempt fails fast instead of interleaving
	finalizeMu sync.Mutex
	// voteMu serializes the snapshot read-modify-write of vote
	// submissions so concurrent voters cannot overwrite each other
	voteMu    sync.Mutex
	lockTimer *time.Timer
}

// New creates an orchestrator wired to the given external collaborators
func New(shuffler shuffle.Shuffler, oracle rating.Oracle) *Orchestrator {
	return &Orchestrator{
		shuffler: shuffler,
		oracle:   oracle,
		guilds:   make(map[string]*guildState),
	}
}

func (o *Orchestrator) guild(guildID string) *guildState {
	o.mu.Lock()
	defer o.mu.Unlock()
	gs, ok := o.guilds[guildID]
	if !ok {
		gs = &guildState{}
		o.guilds[guildID] = gs
	}
	return gs
}

// Shuffle turns the lobby pool into a pending match: balanced teams, a bet
// window, and an empty vote tally, persisted as the guild's crash-recovery
// snapshot
func (o *Orchestrator) Shuffle(guildID string, pool []string, betMode, channelID string) (*database.PendingMatch, error) {
	existing, err := database.GetPendingMatch(guildID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMatchInProgress
	}

	if betMode != database.BetModeHouse && betMode != database.BetModePool {
		betMode = config.Bot.DefaultBetMode
	}

	assignment, err := o.shuffler.Shuffle(pool)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pm := &database.PendingMatch{
		GuildID:          guildID,
		RadiantIDs:       assignment.RadiantIDs,
		DireIDs:          assignment.DireIDs,
		ExcludedIDs:      assignment.ExcludedIDs,
		RoleAssignments:  assignment.Roles,
		ShuffleTS:        now,
		BetLockUntil:     now.Add(time.Duration(config.Economy.BetWindowMinutes) * time.Minute),
		BetMode:          betMode,
		Submissions:      make(map[string]database.Submission),
		AbortSubmissions: make(map[string]database.Submission),
		ChannelID:        channelID,
	}

	if err := database.SavePendingMatch(pm); err != nil {
		return nil, err
	}

	o.scheduleLockReminder(pm)
	log.Printf("[Shuffle] guild %s: new match, betting open until %s (%s mode)",
		guildID, pm.BetLockUntil.Format(time.RFC3339), pm.BetMode)
	return pm, nil
}

// scheduleLockReminder arms the wall-clock timer that announces the close
// of the betting window. The timer is not part of the transactional core;
// finalize/abort cancel it.
func (o *Orchestrator) scheduleLockReminder(pm *database.PendingMatch) {
	gs := o.guild(pm.GuildID)
	until := time.Until(pm.BetLockUntil)
	if until <= 0 {
		return
	}
	guildID := pm.GuildID
	gs.lockTimer = time.AfterFunc(until, func() {
		if o.OnBetsLocked != nil {
			o.OnBetsLocked(guildID)
		}
	})
}

func (o *Orchestrator) cancelLockReminder(guildID string) {
	gs := o.guild(guildID)
	if gs.lockTimer != nil {
		gs.lockTimer.Stop()
		gs.lockTimer = nil
	}
}

// LoadPending re-hydrates pending matches after a restart and re-arms
// their reminder timers
func (o *Orchestrator) LoadPending() error {
	matches, err := database.GetAllPendingMatches()
	if err != nil {
		return err
	}
	for _, pm := range matches {
		o.scheduleLockReminder(pm)
		log.Printf("[Recovery] guild %s: pending match restored (shuffled %s)",
			pm.GuildID, pm.ShuffleTS.Format(time.RFC3339))
	}
	return nil
}

// GetPending returns the guild's pending match straight from the store
func (o *Orchestrator) GetPending(guildID string) (*database.PendingMatch, error) {
	return database.GetPendingMatch(guildID)
}

// SubmitOutcome is what a result vote reports back; Finalize is non-nil
// when this vote reached consensus and triggered settlement
type SubmitOutcome struct {
	Tally    *VoteTally
	Finalize *FinalizeResult
}

// SubmitResult records a result vote and finalizes the match once quorum
// (or an admin vote) decides the outcome
func (o *Orchestrator) SubmitResult(guildID, userID, vote string, isAdmin bool) (*SubmitOutcome, error) {
	gs := o.guild(guildID)

	gs.voteMu.Lock()
	tally, err := o.recordVote(guildID, userID, vote, isAdmin)
	gs.voteMu.Unlock()
	if err != nil {
		return nil, err
	}

	out := &SubmitOutcome{Tally: tally}
	if tally.Decided {
		fr, err := o.Finalize(guildID, tally.Winner)
		if err != nil {
			return out, err
		}
		out.Finalize = fr
	}
	return out, nil
}

// AbortOutcome is what an abort vote reports back; Refunds is non-nil when
// the abort went through
type AbortOutcome struct {
	Tally   *AbortTally
	Refunds map[string]int
}

// SubmitAbort records an abort request and tears the match down once the
// abort quorum (or an admin) decides
func (o *Orchestrator) SubmitAbort(guildID, userID string, isAdmin bool) (*AbortOutcome, error) {
	gs := o.guild(guildID)

	gs.voteMu.Lock()
	tally, err := o.recordAbort(guildID, userID, isAdmin)
	gs.voteMu.Unlock()
	if err != nil {
		return nil, err
	}

	out := &AbortOutcome{Tally: tally}
	if tally.Decided {
		refunds, err := o.Abort(guildID)
		if err != nil {
			return out, err
		}
		out.Refunds = refunds
	}
	return out, nil
}

// recordVote runs the snapshot read-modify-write of one result vote;
// callers hold the guild's voteMu
func (o *Orchestrator) recordVote(guildID, userID, vote string, isAdmin bool) (*VoteTally, error) {
	pm, err := database.GetPendingMatch(guildID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, database.ErrNoPendingMatch
	}
	tally, err := submitVote(pm, userID, vote, isAdmin)
	if err != nil {
		return nil, err
	}
	if err := database.SavePendingMatch(pm); err != nil {
		return nil, err
	}
	return tally, nil
}

// recordAbort runs the snapshot read-modify-write of one abort vote;
// callers hold the guild's voteMu
func (o *Orchestrator) recordAbort(guildID, userID string, isAdmin bool) (*AbortTally, error) {
	pm, err := database.GetPendingMatch(guildID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, database.ErrNoPendingMatch
	}
	tally := submitAbort(pm, userID, isAdmin)
	if err := database.SavePendingMatch(pm); err != nil {
		return nil, err
	}
	return tally, nil
}

// BonusAward is one settlement-time bonus credit, with the garnished/net
// split the presentation layer shows
type BonusAward struct {
	PlayerID  string
	Kind      string
	Amount    int
	Garnished int
	Net       int
	Penalized bool
}

// FinalizeResult aggregates everything a finalized match changed, in the
// order it was applied
type FinalizeResult struct {
	MatchID        string
	Winner         string
	Settlement     *wager.SettlementResult
	Participation  []BonusAward
	WinBonuses     []BonusAward
	Consolations   []BonusAward
	LoanRepayments []debt.LoanRepayment
	Ratings        []rating.PlayerRating
}

// Finalize applies the settlement sequence exactly once for the decided
// outcome. Steps run in a fixed order, each independently transactional;
// a failure part-way leaves the pending match in place for retry and never
// reverses money already shown to users:
//
//	1. record match + win/loss counters
//	2. participation bonus to losing participants
//	3. settle bets
//	4. win bonus to winners (after bets, so one report shows both),
//	   then tick bankruptcy penalties down
//	5. consolation bonus to excluded players
//	6. force-repay outstanding loans of participants
//	7. rating oracle (failure logged, money never rolled back)
//	8. clear the pending match
//
// Before step 1 the betting window is closed and the match ID pinned in
// the snapshot; each completed step advances a persisted watermark so a
// retry skips the steps that already committed instead of applying them
// twice.
func (o *Orchestrator) Finalize(guildID, winner string) (*FinalizeResult, error) {
	gs := o.guild(guildID)
	if !gs.finalizeMu.TryLock() {
		return nil, ErrFinalizeInProgress
	}
	defer gs.finalizeMu.Unlock()

	// Re-read the persisted snapshot; the in-memory copy that triggered
	// this call may be stale
	pm, err := database.GetPendingMatch(guildID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, database.ErrNoPendingMatch
	}

	winners := pm.TeamIDs(winner)
	var losers []string
	if winner == database.TeamRadiant {
		losers = pm.DireIDs
	} else {
		losers = pm.RadiantIDs
	}

	// Close the betting window and pin the match ID before any money
	// moves: placements re-read bet_lock_until inside their transaction,
	// so no new stake can slip into a window being settled, and a retry
	// continues under the same match instead of minting a second one
	now := time.Now()
	if pm.FinalizeMatchID == "" {
		pm.FinalizeMatchID = uuid.NewString()
	}
	if pm.BetLockUntil.After(now) {
		pm.BetLockUntil = now
	}
	if err := database.SavePendingMatch(pm); err != nil {
		return nil, err
	}

	result := &FinalizeResult{
		MatchID: pm.FinalizeMatchID,
		Winner:  winner,
	}

	// advance persists the step watermark after each committed step
	advance := func(step int) error {
		pm.FinalizeStep = step
		return database.SavePendingMatch(pm)
	}

	// Step 1: immutable match record + counters
	if pm.FinalizeStep < 1 {
		record := &database.MatchRecord{
			ID:          result.MatchID,
			GuildID:     guildID,
			Winner:      winner,
			RadiantIDs:  pm.RadiantIDs,
			DireIDs:     pm.DireIDs,
			ExcludedIDs: pm.ExcludedIDs,
			ShuffledAt:  pm.ShuffleTS,
			FinalizedAt: time.Now(),
		}
		// The pinned ID may already be on disk if an earlier run died
		// between the insert and the watermark
		exists, err := database.MatchExists(result.MatchID)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := database.RecordMatch(record, winners, losers); err != nil {
				return nil, err
			}
		}
		if err := advance(1); err != nil {
			return result, err
		}
	}

	// Step 2: participation bonus for the losing side
	if pm.FinalizeStep < 2 {
		for _, id := range losers {
			award, err := creditBonus(id, "participation", config.Economy.ParticipationBonus, false)
			if err != nil {
				return result, err
			}
			result.Participation = append(result.Participation, award)
		}
		if err := advance(2); err != nil {
			return result, err
		}
	}

	// Step 3: settle the betting window. A window already paid by an
	// interrupted earlier run is skipped, never paid twice.
	if pm.FinalizeStep < 3 {
		settlement, err := wager.Settle(guildID, result.MatchID, pm.ShuffleTS, winner, pm.BetMode)
		switch {
		case errors.Is(err, database.ErrAlreadySettled):
			log.Printf("[Finalize] guild %s: bets already settled, continuing", guildID)
		case err != nil:
			return result, err
		default:
			result.Settlement = settlement
			for playerID, payout := range settlement.PlayerPayouts {
				webhook.SendSettlementNotification(guildID, result.MatchID, playerID, winner, payout)
			}
		}
		if err := advance(3); err != nil {
			return result, err
		}
	}

	// Step 4: win bonus, scaled down while a bankruptcy penalty is active
	if pm.FinalizeStep < 4 {
		for _, id := range winners {
			bonus, penalized, err := debt.ScaleWinBonus(id, config.Economy.WinBonus)
			if err != nil {
				return result, err
			}
			award, err := creditBonus(id, "win", bonus, penalized)
			if err != nil {
				return result, err
			}
			result.WinBonuses = append(result.WinBonuses, award)
		}
		if err := debt.DecrementPenalties(pm.Participants()); err != nil {
			return result, err
		}
		if err := advance(4); err != nil {
			return result, err
		}
	}

	// Step 5: consolation bonus for the excluded
	if pm.FinalizeStep < 5 {
		for _, id := range pm.ExcludedIDs {
			award, err := creditBonus(id, "consolation", config.Economy.ConsolationBonus, false)
			if err != nil {
				return result, err
			}
			result.Consolations = append(result.Consolations, award)
		}
		if err := advance(5); err != nil {
			return result, err
		}
	}

	// Step 6: forced loan repayment for every participant (repaying a
	// repaid loan is a no-op, so this step is safe to re-run)
	if pm.FinalizeStep < 6 {
		repayments, err := debt.ResolveLoansAtSettlement(guildID, pm.Participants())
		result.LoanRepayments = repayments
		if err != nil {
			return result, err
		}
		if err := advance(6); err != nil {
			return result, err
		}
	}

	// Step 7: rating oracle; its failure never rolls back settled money
	if pm.FinalizeStep < 7 {
		ratings, err := o.oracle.Update(winners, losers)
		if err != nil {
			log.Printf("[Finalize] guild %s: rating update failed (money already settled): %v", guildID, err)
		}
		result.Ratings = ratings
		if err := advance(7); err != nil {
			return result, err
		}
	}

	// Step 8: teardown
	if err := database.DeletePendingMatch(guildID); err != nil {
		return result, err
	}
	o.cancelLockReminder(guildID)

	if result.Settlement != nil {
		log.Printf("[Finalize] guild %s: match %s finalized, winner %s, pot %d paid %d",
			guildID, result.MatchID, winner, result.Settlement.TotalPool, result.Settlement.TotalPaid())
	} else {
		log.Printf("[Finalize] guild %s: match %s finalized, winner %s", guildID, result.MatchID, winner)
	}
	return result, nil
}

// creditBonus credits a bonus and computes the garnished/net split for
// reporting. The full amount always lands on the balance.
func creditBonus(playerID, kind string, amount int, penalized bool) (BonusAward, error) {
	award := BonusAward{PlayerID: playerID, Kind: kind, Amount: amount, Penalized: penalized}
	if amount <= 0 {
		return award, nil
	}
	balanceBefore := database.GetBalance(playerID)
	if err := database.AddCoins(playerID, amount); err != nil {
		return award, err
	}
	award.Garnished, award.Net = debt.SplitGarnished(balanceBefore, amount)
	return award, nil
}

// Abort tears the pending match down: every open bet of the window is
// refunded and deleted, the reminder timer is cancelled and the snapshot
// removed. Serialized against finalize by the same guild lock.
func (o *Orchestrator) Abort(guildID string) (map[string]int, error) {
	gs := o.guild(guildID)
	if !gs.finalizeMu.TryLock() {
		return nil, ErrFinalizeInProgress
	}
	defer gs.finalizeMu.Unlock()

	pm, err := database.GetPendingMatch(guildID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, database.ErrNoPendingMatch
	}

	// Close the window before refunding, so no stake lands between the
	// refund and the snapshot delete
	now := time.Now()
	if pm.BetLockUntil.After(now) {
		pm.BetLockUntil = now
		if err := database.SavePendingMatch(pm); err != nil {
			return nil, err
		}
	}

	refunds, err := wager.Refund(guildID, pm.ShuffleTS)
	if err != nil {
		return nil, err
	}
	if err := database.DeletePendingMatch(guildID); err != nil {
		return refunds, err
	}
	o.cancelLockReminder(guildID)

	log.Printf("[Abort] guild %s: match aborted, %d bettors refunded", guildID, len(refunds))
	return refunds, nil
}
