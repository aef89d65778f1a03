package repository

import (
	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestStatusIndex answers "all requests currently in status S" lookups.
type RequestStatusIndex struct {
	indexCore
}

// StatusIndexCriteria selects one lifecycle status.
type StatusIndexCriteria struct {
	Status models.RequestStatus
}

// NewRequestStatusIndex constructs the index over a fresh ordered map.
func NewRequestStatusIndex() *RequestStatusIndex {
	return &RequestStatusIndex{indexCore: newIndexCore()}
}

func statusIndexKey(e models.StatusIndexEntry) []byte {
	key := store.AppendString(nil, string(e.Status))
	return store.AppendID(key, e.RequestID)
}

// Exists reports whether the entry is present.
func (r *RequestStatusIndex) Exists(e models.StatusIndexEntry) bool {
	return r.exists(statusIndexKey(e))
}

// Insert stores the entry.
func (r *RequestStatusIndex) Insert(e models.StatusIndexEntry) {
	r.insert(statusIndexKey(e))
}

// Remove deletes the entry and reports whether it was present.
func (r *RequestStatusIndex) Remove(e models.StatusIndexEntry) bool {
	return r.remove(statusIndexKey(e))
}

// FindByCriteria returns the ids of all requests in the given status.
func (r *RequestStatusIndex) FindByCriteria(c StatusIndexCriteria) map[uuid.UUID]struct{} {
	lower := store.AppendString(nil, string(c.Status))
	lower = store.AppendID(lower, store.MinID)
	upper := store.AppendString(nil, string(c.Status))
	upper = store.AppendID(upper, store.MaxID)
	return r.scanIDs(lower, upper)
}
