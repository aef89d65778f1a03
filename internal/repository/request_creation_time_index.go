package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestCreationTimeIndex answers "requests created between t1 and t2".
type RequestCreationTimeIndex struct {
	indexCore
}

// CreationTimeIndexCriteria bounds a lookup; nil timestamps mean unbounded.
type CreationTimeIndexCriteria struct {
	From *time.Time
	To   *time.Time
}

// NewRequestCreationTimeIndex constructs the index over a fresh ordered map.
func NewRequestCreationTimeIndex() *RequestCreationTimeIndex {
	return &RequestCreationTimeIndex{indexCore: newIndexCore()}
}

func creationTimeIndexKey(e models.CreationTimeIndexEntry) []byte {
	key := store.AppendTime(nil, e.CreatedAt)
	return store.AppendID(key, e.RequestID)
}

// Exists reports whether the entry is present.
func (r *RequestCreationTimeIndex) Exists(e models.CreationTimeIndexEntry) bool {
	return r.exists(creationTimeIndexKey(e))
}

// Insert stores the entry.
func (r *RequestCreationTimeIndex) Insert(e models.CreationTimeIndexEntry) {
	r.insert(creationTimeIndexKey(e))
}

// Remove deletes the entry and reports whether it was present.
func (r *RequestCreationTimeIndex) Remove(e models.CreationTimeIndexEntry) bool {
	return r.remove(creationTimeIndexKey(e))
}

// FindByCriteria returns the ids of all requests created inside the window.
func (r *RequestCreationTimeIndex) FindByCriteria(c CreationTimeIndexCriteria) map[uuid.UUID]struct{} {
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
