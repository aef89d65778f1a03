package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestProposerIndex answers "requests created by identity P" lookups.
type RequestProposerIndex struct {
	indexCore
}

// ProposerIndexCriteria bounds a lookup; nil timestamps mean unbounded.
type ProposerIndexCriteria struct {
	ProposerID string
	From       *time.Time
	To         *time.Time
}

// NewRequestProposerIndex constructs the index over a fresh ordered map.
func NewRequestProposerIndex() *RequestProposerIndex {
	return &RequestProposerIndex{indexCore: newIndexCore()}
}

func proposerIndexKey(e models.ProposerIndexEntry) []byte {
	key := store.AppendString(nil, e.ProposerID)
	key = store.AppendTime(key, e.CreatedAt)
	return store.AppendID(key, e.RequestID)
}

// Exists reports whether the entry is present.
func (r *RequestProposerIndex) Exists(e models.ProposerIndexEntry) bool {
	return r.exists(proposerIndexKey(e))
}

// Insert stores the entry.
func (r *RequestProposerIndex) Insert(e models.ProposerIndexEntry) {
	r.insert(proposerIndexKey(e))
}

// Remove deletes the entry and reports whether it was present.
func (r *RequestProposerIndex) Remove(e models.ProposerIndexEntry) bool {
	return r.remove(proposerIndexKey(e))
}

// FindByCriteria returns the ids of all matching requests.
func (r *RequestProposerIndex) FindByCriteria(c ProposerIndexCriteria) map[uuid.UUID]struct{} {
	lower := store.AppendString(nil, c.ProposerID)
	if c.From != nil {
		lower = store.AppendTime(lower, *c.From)
	} else {
		lower = store.AppendUint64(lower, 0)
	}
	lower = store.AppendID(lower, store.MinID)

	upper := store.AppendString(nil, c.ProposerID)
	if c.To != nil {
		upper = store.AppendTime(upper, *c.To)
	} else {
		upper = store.AppendTime(upper, store.MaxTime)
	}
	upper = store.AppendID(upper, store.MaxID)

	return r.scanIDs(lower, upper)
}
