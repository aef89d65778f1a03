package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestVoterIndex answers "requests identity V has voted on" lookups.
type RequestVoterIndex struct {
	indexCore
}

// VoterIndexCriteria bounds a lookup; nil timestamps mean unbounded.
type VoterIndexCriteria struct {
	VoterID string
	From    *time.Time
	To      *time.Time
}

// NewRequestVoterIndex constructs the index over a fresh ordered map.
func NewRequestVoterIndex() *RequestVoterIndex {
	return &RequestVoterIndex{indexCore: newIndexCore()}
}

func voterIndexKey(e models.VoterIndexEntry) []byte {
	key := store.AppendString(nil, e.VoterID)
	key = store.AppendTime(key, e.CreatedAt)
	return store.AppendID(key, e.RequestID)
}

// Exists reports whether the entry is present.
func (r *RequestVoterIndex) Exists(e models.VoterIndexEntry) bool {
	return r.exists(voterIndexKey(e))
}

// Insert stores the entry.
func (r *RequestVoterIndex) Insert(e models.VoterIndexEntry) {
	r.insert(voterIndexKey(e))
}

// Remove deletes the entry and reports whether it was present.
func (r *RequestVoterIndex) Remove(e models.VoterIndexEntry) bool {
	return r.remove(voterIndexKey(e))
}

// FindByCriteria returns the ids of all requests the voter participated in.
func (r *RequestVoterIndex) FindByCriteria(c VoterIndexCriteria) map[uuid.UUID]struct{} {
	lower := store.AppendString(nil, c.VoterID)
	if c.From != nil {
		lower = store.AppendTime(lower, *c.From)
	} else {
		lower = store.AppendUint64(lower, 0)
	}
	lower = store.AppendID(lower, store.MinID)

	upper := store.AppendString(nil, c.VoterID)
	if c.To != nil {
		upper = store.AppendTime(upper, *c.To)
	} else {
		upper = store.AppendTime(upper, store.MaxTime)
	}
	upper = store.AppendID(upper, store.MaxID)

	return r.scanIDs(lower, upper)
}
