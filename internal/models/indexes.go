package models

import (
	"time"

	"github.com/google/uuid"
)

// Index entries are derived, disposable back-references from one indexed
// attribute to a request id. They are recomputed from the current request
// state on every write and are never a source of truth.

// AccountIndexEntry indexes requests by the custody account they target.
type AccountIndexEntry struct {
	AccountID string
	CreatedAt time.Time
	RequestID uuid.UUID
}

// ProposerIndexEntry indexes requests by their proposer.
type ProposerIndexEntry struct {
	ProposerID string
	CreatedAt  time.Time
	RequestID  uuid.UUID
}

// StatusIndexEntry indexes requests by lifecycle status.
type StatusIndexEntry struct {
	Status    RequestStatus
	RequestID uuid.UUID
}

// CreationTimeIndexEntry indexes requests by creation timestamp.
type CreationTimeIndexEntry struct {
	CreatedAt time.Time
	RequestID uuid.UUID
}

// ExpirationTimeIndexEntry indexes requests by expiration timestamp.
type ExpirationTimeIndexEntry struct {
	ExpiresAt time.Time
	RequestID uuid.UUID
}

// VoterIndexEntry indexes requests by each voter that participated.
type VoterIndexEntry struct {
	VoterID   string
	CreatedAt time.Time
	RequestID uuid.UUID
}

// UserIndexEntry indexes requests by the wallet user they target.
type UserIndexEntry struct {
	UserID    string
	CreatedAt time.Time
	RequestID uuid.UUID
}

// AccountIndexEntry derives the account index entry, when the operation
// targets an account.
func (r *Request) AccountIndexEntry() *AccountIndexEntry {
	accountID := r.Operation.AccountID()
	if accountID == "" {
		return nil
	}
	return &AccountIndexEntry{AccountID: accountID, CreatedAt: r.CreatedAt, RequestID: r.ID}
}

// ProposerIndexEntry derives the proposer index entry.
func (r *Request) ProposerIndexEntry() ProposerIndexEntry {
	return ProposerIndexEntry{ProposerID: r.Proposer, CreatedAt: r.CreatedAt, RequestID: r.ID}
}

// StatusIndexEntry derives the status index entry from the current status.
func (r *Request) StatusIndexEntry() StatusIndexEntry {
	return StatusIndexEntry{Status: r.Status, RequestID: r.ID}
}

// CreationTimeIndexEntry derives the creation time index entry.
func (r *Request) CreationTimeIndexEntry() CreationTimeIndexEntry {
	return CreationTimeIndexEntry{CreatedAt: r.CreatedAt, RequestID: r.ID}
}

// ExpirationTimeIndexEntry derives the expiration time index entry.
func (r *Request) ExpirationTimeIndexEntry() ExpirationTimeIndexEntry {
	return ExpirationTimeIndexEntry{ExpiresAt: r.ExpiresAt, RequestID: r.ID}
}

// VoterIndexEntries derives one entry per voter on the request.
func (r *Request) VoterIndexEntries() []VoterIndexEntry {
	entries := make([]VoterIndexEntry, 0, len(r.Votes))
	for _, vote := range r.Votes {
		entries = append(entries, VoterIndexEntry{
			VoterID:   vote.VoterID,
			CreatedAt: r.CreatedAt,
			RequestID: r.ID,
		})
	}
	return entries
}

// UserIndexEntry derives the target user index entry, when the operation
// targets a wallet user.
func (r *Request) UserIndexEntry() *UserIndexEntry {
	userID := r.Operation.TargetUserID()
	if userID == "" {
		return nil
	}
	return &UserIndexEntry{UserID: userID, CreatedAt: r.CreatedAt, RequestID: r.ID}
}
