package models

import "time"

// Vote is a single immutable ballot. The storage layer enforces at most one
// vote per voter.
type Vote struct {
	ID                 string    `json:"id"`
	VoterAccountID     string    `json:"voterAccountId"`
	CandidateAccountID string    `json:"candidateAccountId"`
	CastAt             time.Time `json:"castAt"`
}

// VoteReceipt acknowledges an accepted ballot. It deliberately carries no
// ballot content; results are only reported in aggregate.
type VoteReceipt struct {
	Message string    `json:"message"`
	CastAt  time.Time `json:"castAt"`
}

// VoteSummaryEntry is one row of the aggregated tally.
type VoteSummaryEntry struct {
	CandidateID      string     `json:"candidateId"`
	Count            int        `json:"count"`
	CandidateProfile *Candidate `json:"candidateProfile"`
}

// VoteSnapshot is a periodic point-in-time record of the tally.
type VoteSnapshot struct {
	ID        string    `json:"id"`
	Total     int       `json:"total"`
	TallyJSON string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
