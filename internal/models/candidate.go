package models

import "time"

// Candidate represents a candidacy profile, tied 1:1 to an account.
// CandidateNumber and AccountID are immutable after creation.
type Candidate struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"accountId"`
	CandidateNumber int       `json:"candidateNumber"`
	DisplayName     string    `json:"displayName"`
	Slogan          string    `json:"slogan"`
	Description     string    `json:"description"`
	ImageRef        string    `json:"imageRef"`
	AppliedAt       time.Time `json:"appliedAt"`
	// Joined from the backing account on read paths.
	Email string `json:"email,omitempty"`
}

// CandidateApplication carries the profile fields submitted when applying.
type CandidateApplication struct {
	DisplayName string `json:"displayName"`
	Slogan      string `json:"slogan"`
	Description string `json:"description"`
	ImageRef    string `json:"imageRef"`
}

// CandidateUpdate carries the mutable display fields of a profile. Nil
// pointers leave the stored value untouched. Clients that echo the whole
// profile back may include candidateNumber or accountId; those fields are
// dropped at decode time rather than rejected.
type CandidateUpdate struct {
	DisplayName *string `json:"displayName"`
	Slogan      *string `json:"slogan"`
	Description *string `json:"description"`
	ImageRef    *string `json:"imageRef"`
}
