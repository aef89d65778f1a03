package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestAccountIndex answers "requests touching account X, created in a time
// window" with a single range scan.
type RequestAccountIndex struct {
	indexCore
}

// AccountIndexCriteria bounds a lookup; nil timestamps mean unbounded.
type AccountIndexCriteria struct {
	AccountID string
	From      *time.Time
	To        *time.Time
}

// NewRequestAccountIndex constructs the index over a fresh ordered map.
func NewRequestAccountIndex() *RequestAccountIndex {
	return &RequestAccountIndex{indexCore: newIndexCore()}
}

func accountIndexKey(e models.AccountIndexEntry) []byte {
	key := store.AppendString(nil, e.AccountID)
	key = store.AppendTime(key, e.CreatedAt)
	return store.AppendID(key, e.RequestID)
}

// Exists reports whether the entry is present.
func (r *RequestAccountIndex) Exists(e models.AccountIndexEntry) bool {
	return r.exists(accountIndexKey(e))
}

// Insert stores the entry.
func (r *RequestAccountIndex) Insert(e models.AccountIndexEntry) {
	r.insert(accountIndexKey(e))
}

// Remove deletes the entry and reports whether it was present.
func (r *RequestAccountIndex) Remove(e models.AccountIndexEntry) bool {
	return r.remove(accountIndexKey(e))
}

// FindByCriteria returns the ids of all matching requests.
func (r *RequestAccountIndex) FindByCriteria(c AccountIndexCriteria) map[uuid.UUID]struct{} {
	lower := store.AppendString(nil, c.AccountID)
	if c.From != nil {
		lower = store.AppendTime(lower, *c.From)
	} else {
		lower = store.AppendUint64(lower, 0)
	}
	lower = store.AppendID(lower, store.MinID)

	upper := store.AppendString(nil, c.AccountID)
	if c.To != nil {
		upper = store.AppendTime(upper, *c.To)
	} else {
		upper = store.AppendTime(upper, store.MaxTime)
	}
	upper = store.AppendID(upper, store.MaxID)

	return r.scanIDs(lower, upper)
}
