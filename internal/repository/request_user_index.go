package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestUserIndex answers "requests targeting wallet user U" lookups.
type RequestUserIndex struct {
	indexCore
}

// UserIndexCriteria bounds a lookup; nil timestamps mean unbounded.
type UserIndexCriteria struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// NewRequestUserIndex constructs the index over a fresh ordered map.
func NewRequestUserIndex() *RequestUserIndex {
	return &RequestUserIndex{indexCore: newIndexCore()}
}

func userIndexKey(e models.UserIndexEntry) []byte {
	key := store.AppendString(nil, e.UserID)
	key = store.AppendTime(key, e.CreatedAt)
	return store.AppendID(key, e.RequestID)
}

// Exists reports whether the entry is present.
func (r *RequestUserIndex) Exists(e models.UserIndexEntry) bool {
	return r.exists(userIndexKey(e))
}

// Insert stores the entry.
func (r *RequestUserIndex) Insert(e models.UserIndexEntry) {
	r.insert(userIndexKey(e))
}

// Remove deletes the entry and reports whether it was present.
func (r *RequestUserIndex) Remove(e models.UserIndexEntry) bool {
	return r.remove(userIndexKey(e))
}

// FindByCriteria returns the ids of all requests targeting the user.
func (r *RequestUserIndex) FindByCriteria(c UserIndexCriteria) map[uuid.UUID]struct{} {
	lower := store.AppendString(nil, c.UserID)
	if c.From != nil {
		lower = store.AppendTime(lower, *c.From)
	} else {
		lower = store.AppendUint64(lower, 0)
	}
	lower = store.AppendID(lower, store.MinID)

	upper := store.AppendString(nil, c.UserID)
	if c.To != nil {
		upper = store.AppendTime(upper, *c.To)
	} else {
		upper = store.AppendTime(upper, store.MaxTime)
	}
	upper = store.AppendID(upper, store.MaxID)

	return r.scanIDs(lower, upper)
}
