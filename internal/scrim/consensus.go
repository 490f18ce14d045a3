package scrim

import (
	"errors"

	"jopacoin/internal/database"
	"jopacoin/pkg/config"
)

// Consensus states of a pending match's result track
const (
	StateOpen      = "open"
	StateReady     = "ready"
	StateFinalized = "finalized"
)

var (
	// ErrConflictingVote is returned when a user tries to vote the
	// opposite of what they already submitted; votes are never silently
	// overwritten
	ErrConflictingVote = errors.New("conflicting vote: you already reported the other outcome")

	ErrInvalidVote = errors.New("vote must be radiant or dire")
)

// VoteTally is the current consensus state of a submission track
type VoteTally struct {
	RadiantVotes int
	DireVotes    int
	AdminVote    string
	Decided      bool
	Winner       string
}

// submitVote records a result vote on the pending match. Re-submitting the
// same vote is idempotent; submitting the opposite one is rejected. An
// admin vote is decisive immediately; otherwise either side's non-admin
// counter reaching the quorum decides.
func submitVote(pm *database.PendingMatch, userID, vote string, isAdmin bool) (*VoteTally, error) {
	if vote != database.TeamRadiant && vote != database.TeamDire {
		return nil, ErrInvalidVote
	}

	if prev, ok := pm.Submissions[userID]; ok {
		if prev.Vote != vote {
			return nil, ErrConflictingVote
		}
		// Idempotent repeat; admin flag may have been granted since
		if prev.IsAdmin == isAdmin {
			return tallyVotes(pm), nil
		}
	}

	pm.Submissions[userID] = database.Submission{Vote: vote, IsAdmin: isAdmin}
	return tallyVotes(pm), nil
}

func tallyVotes(pm *database.PendingMatch) *VoteTally {
	t := &VoteTally{}
	for _, sub := range pm.Submissions {
		if sub.IsAdmin {
			t.AdminVote = sub.Vote
			continue
		}
		switch sub.Vote {
		case database.TeamRadiant:
			t.RadiantVotes++
		case database.TeamDire:
			t.DireVotes++
		}
	}

	quorum := config.Economy.MinQuorum
	switch {
	case t.AdminVote != "":
		t.Decided = true
		t.Winner = t.AdminVote
	case t.RadiantVotes >= quorum:
		t.Decided = true
		t.Winner = database.TeamRadiant
	case t.DireVotes >= quorum:
		t.Decided = true
		t.Winner = database.TeamDire
	}
	return t
}

// AbortTally mirrors VoteTally for the abort track
type AbortTally struct {
	Votes   int
	ByAdmin bool
	Decided bool
}

// submitAbort records an abort request. The abort track keeps its own
// counters and quorum; an admin abort is unconditional.
func submitAbort(pm *database.PendingMatch, userID string, isAdmin bool) *AbortTally {
	pm.AbortSubmissions[userID] = database.Submission{Vote: "abort", IsAdmin: isAdmin}

	t := &AbortTally{}
	for _, sub := range pm.AbortSubmissions {
		if sub.IsAdmin {
			t.ByAdmin = true
			continue
		}
		t.Votes++
	}
	if t.ByAdmin || t.Votes >= config.Economy.MinQuorum {
		t.Decided = true
	}
	return t
}

// Tally exposes the current result-vote state of a pending match
func Tally(pm *database.PendingMatch) *VoteTally {
	return tallyVotes(pm)
}

// State maps the tally onto the consensus state machine
func State(pm *database.PendingMatch) string {
	if tallyVotes(pm).Decided {
		return StateReady
	}
	return StateOpen
}
