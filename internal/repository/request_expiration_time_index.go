package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestExpirationTimeIndex answers "requests expiring between t1 and t2".
type RequestExpirationTimeIndex struct {
	indexCore
}

// ExpirationTimeIndexCriteria bounds a lookup; nil timestamps mean unbounded.
type ExpirationTimeIndexCriteria struct {
	From *time.Time
	To   *time.Time
}

// NewRequestExpirationTimeIndex constructs the index over a fresh ordered map.
func NewRequestExpirationTimeIndex() *RequestExpirationTimeIndex {
	return &RequestExpirationTimeIndex{indexCore: newIndexCore()}
}

func expirationTimeIndexKey(e models.ExpirationTimeIndexEntry) []byte {
	key := store.AppendTime(nil, e.ExpiresAt)
	return store.AppendID(key, e.RequestID)
}

// Exists reports whether the entry is present.
func (r *RequestExpirationTimeIndex) Exists(e models.ExpirationTimeIndexEntry) bool {
	return r.exists(expirationTimeIndexKey(e))
}

// Insert stores the entry.
func (r *RequestExpirationTimeIndex) Insert(e models.ExpirationTimeIndexEntry) {
	r.insert(expirationTimeIndexKey(e))
}

// Remove deletes the entry and reports whether it was present.
func (r *RequestExpirationTimeIndex) Remove(e models.ExpirationTimeIndexEntry) bool {
	return r.remove(expirationTimeIndexKey(e))
}

// FindByCriteria returns the ids of all requests expiring inside the window.
func (r *RequestExpirationTimeIndex) FindByCriteria(c ExpirationTimeIndexCriteria) map[uuid.UUID]struct{} {
	var lower []byte
	if c.From != nil {
		lower = store.AppendTime(nil, *c.From)
	} else {
		lower = store.AppendUint64(nil, 0)
	}
	lower = store.AppendID(lower, store.MinID)

	var upper []byte
	if c.To != nil {
		upper = store.AppendTime(nil, *c.To)
	} else {
		upper = store.AppendTime(nil, store.MaxTime)
	}
	upper = store.AppendID(upper, store.MaxID)

	return r.scanIDs(lower, upper)
}
