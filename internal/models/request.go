package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus captures the lifecycle states of a governance request.
type RequestStatus string

const (
	RequestStatusCreated   RequestStatus = "CREATED"
	RequestStatusAdopted   RequestStatus = "ADOPTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusExecuting RequestStatus = "EXECUTING"
	RequestStatusCompleted RequestStatus = "COMPLETED"
	RequestStatusFailed    RequestStatus = "FAILED"
	RequestStatusExpired   RequestStatus = "EXPIRED"
)

// Terminal reports whether the status admits no further transition.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusCompleted, RequestStatusFailed, RequestStatusExpired:
		return true
	}
	return false
}

// VoteDecision is a single voter's verdict.
type VoteDecision string

const (
	VoteDecisionApprove VoteDecision = "APPROVE"
	VoteDecisionReject  VoteDecision = "REJECT"
)

// Vote records one party's decision on a request.
type Vote struct {
	VoterID  string       `json:"voter_id"`
	Decision VoteDecision `json:"decision"`
	VotedAt  time.Time    `json:"voted_at"`
}

// Request is the central governance entity: a proposed change that must be
// authorized, voted on, and executed. Only Status, Votes and ExecutionResult
// mutate after creation.
type Request struct {
	ID              uuid.UUID     `json:"id"`
	Proposer        string        `json:"proposer"`
	Operation       Operation     `json:"operation"`
	Status          RequestStatus `json:"status"`
	Votes           []Vote        `json:"votes"`
	CreatedAt       time.Time     `json:"created_at"`
	ExpiresAt       time.Time     `json:"expires_at"`
	ExecutionResult *string       `json:"execution_result,omitempty"`
}

// HasVoted reports whether the voter already cast a vote.
func (r *Request) HasVoted(voterID string) bool {
	for _, vote := range r.Votes {
		if vote.VoterID == voterID {
			return true
		}
	}
	return false
}

// ExpiredAt reports whether the request should be considered expired at now.
// Only undecided requests expire; execution in flight is never timed out here.
func (r *Request) ExpiredAt(now time.Time) bool {
	return r.Status == RequestStatusCreated && now.After(r.ExpiresAt)
}

// RequestFilter constrains list queries. Attribute filters that map to an
// index are served by range scans; the rest fall back to a full scan.
type RequestFilter struct {
	Statuses     []RequestStatus
	AccountID    string
	ProposerID   string
	VoterID      string
	TargetUserID string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	ExpiresFrom  *time.Time
	ExpiresTo    *time.Time
	Limit        int
	Offset       int
}
