package repository

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

// RequestRepository owns the primary request store and keeps every derived
// index synchronous with it. Index entries are recomputed from the request
// state on each write: Save removes entries derived from the previously stored
// version before inserting the current ones, so no mutation can strand stale
// back-references. Writes take the repository lock so the row and its index
// entries move together under concurrent callers.
type RequestRepository struct {
	mu     sync.RWMutex
	db     *store.Map
	logger *zap.Logger

	Accounts    *RequestAccountIndex
	Proposers   *RequestProposerIndex
	Statuses    *RequestStatusIndex
	Creations   *RequestCreationTimeIndex
	Expirations *RequestExpirationTimeIndex
	Voters      *RequestVoterIndex
	Users       *RequestUserIndex
}

// RequestRepositoryOption customizes construction.
type RequestRepositoryOption func(*RequestRepository)

// WithRepositoryLogger attaches a logger for decode diagnostics.
func WithRepositoryLogger(logger *zap.Logger) RequestRepositoryOption {
	return func(r *RequestRepository) { r.logger = logger }
}

// NewRequestRepository constructs the repository and its indexes.
func NewRequestRepository(opts ...RequestRepositoryOption) *RequestRepository {
	r := &RequestRepository{
		db:          store.NewMap(),
		logger:      zap.NewNop(),
		Accounts:    NewRequestAccountIndex(),
		Proposers:   NewRequestProposerIndex(),
		Statuses:    NewRequestStatusIndex(),
		Creations:   NewRequestCreationTimeIndex(),
		Expirations: NewRequestExpirationTimeIndex(),
		Voters:      NewRequestVoterIndex(),
		Users:       NewRequestUserIndex(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get loads a request by id.
func (r *RequestRepository) Get(id uuid.UUID) (*models.Request, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *RequestRepository) get(id uuid.UUID) (*models.Request, bool) {
	raw, ok := r.db.Get(id[:])
	if !ok {
		return nil, false
	}
	var request models.Request
	if err := json.Unmarshal(raw, &request); err != nil {
		// A stored row we cannot decode is corruption, not absence.
		r.logger.Error("corrupt request row",
			zap.String("request_id", id.String()), zap.Error(err))
		return nil, false
	}
	return &request, true
}

// Save persists the request and refreshes all derived index entries.
func (r *RequestRepository) Save(request *models.Request) error {
	raw, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if previous, ok := r.get(request.ID); ok {
		r.removeIndexEntries(previous)
	}
	r.db.Set(request.ID[:], raw)
	r.insertIndexEntries(request)
	return nil
}

// Remove deletes the request and every index entry derived from it.
func (r *RequestRepository) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.get(id)
	if !ok {
		return false
	}
	r.removeIndexEntries(request)
	return r.db.Delete(id[:])
}

// Len returns the number of stored requests.
func (r *RequestRepository) Len() int {
	return r.db.Len()
}

// List returns every stored request.
func (r *RequestRepository) List() []models.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list()
}

func (r *RequestRepository) list() []models.Request {
	out := make([]models.Request, 0, r.db.Len())
	r.db.Ascend(func(key, raw []byte) bool {
		var request models.Request
		if err := json.Unmarshal(raw, &request); err != nil {
			id, _ := store.IDFromSuffix(key)
			r.logger.Error("corrupt request row",
				zap.String("request_id", id.String()), zap.Error(err))
			return true
		}
		out = append(out, request)
		return true
	})
	return out
}

// FindByFilter selects requests matching the filter. When the filter pins an
// indexed attribute the candidate set comes from a range scan; otherwise it
// falls back to a full scan. Remaining predicates are applied in memory and
// results are ordered newest first.
func (r *RequestRepository) FindByFilter(filter models.RequestFilter) []*models.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.candidateIDs(filter)

	var requests []*models.Request
	if candidates == nil {
		all := r.list()
		requests = make([]*models.Request, 0, len(all))
		for i := range all {
			requests = append(requests, &all[i])
		}
	} else {
		requests = make([]*models.Request, 0, len(candidates))
		for id := range candidates {
			if request, ok := r.get(id); ok {
				requests = append(requests, request)
			}
		}
	}

	filtered := requests[:0]
	for _, request := range requests {
		if matchesFilter(request, filter) {
			filtered = append(filtered, request)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return nil
	}
	filtered = filtered[offset:]
	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}
	return filtered
}

// RebuildIndexes drops and reconstructs every index from the request set.
// Indexes are derived data; this is the recovery/migration path.
func (r *RequestRepository) RebuildIndexes() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Accounts.clear()
	r.Proposers.clear()
	r.Statuses.clear()
	r.Creations.clear()
	r.Expirations.clear()
	r.Voters.clear()
	r.Users.clear()

	for _, request := range r.list() {
		request := request
		r.insertIndexEntries(&request)
	}
}

func (r *RequestRepository) candidateIDs(filter models.RequestFilter) map[uuid.UUID]struct{} {
	switch {
	case filter.AccountID != "":
		return r.Accounts.FindByCriteria(AccountIndexCriteria{
			AccountID: filter.AccountID,
			From:      filter.CreatedFrom,
			To:        filter.CreatedTo,
		})
	case filter.VoterID != "":
		return r.Voters.FindByCriteria(VoterIndexCriteria{
			VoterID: filter.VoterID,
			From:    filter.CreatedFrom,
			To:      filter.CreatedTo,
		})
	case filter.ProposerID != "":
		return r.Proposers.FindByCriteria(ProposerIndexCriteria{
			ProposerID: filter.ProposerID,
			From:       filter.CreatedFrom,
			To:         filter.CreatedTo,
		})
	case filter.TargetUserID != "":
		return r.Users.FindByCriteria(UserIndexCriteria{
			UserID: filter.TargetUserID,
			From:   filter.CreatedFrom,
			To:     filter.CreatedTo,
		})
	case len(filter.Statuses) > 0:
		ids := make(map[uuid.UUID]struct{})
		for _, status := range filter.Statuses {
			for id := range r.Statuses.FindByCriteria(StatusIndexCriteria{Status: status}) {
				ids[id] = struct{}{}
			}
		}
		return ids
	case filter.ExpiresFrom != nil || filter.ExpiresTo != nil:
		return r.Expirations.FindByCriteria(ExpirationTimeIndexCriteria{
			From: filter.ExpiresFrom,
			To:   filter.ExpiresTo,
		})
	case filter.CreatedFrom != nil || filter.CreatedTo != nil:
		return r.Creations.FindByCriteria(CreationTimeIndexCriteria{
			From: filter.CreatedFrom,
			To:   filter.CreatedTo,
		})
	default:
		return nil
	}
}

func matchesFilter(request *models.Request, filter models.RequestFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if request.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.AccountID != "" && request.Operation.AccountID() != filter.AccountID {
		return false
	}
	if filter.ProposerID != "" && request.Proposer != filter.ProposerID {
		return false
	}
	if filter.VoterID != "" && !request.HasVoted(filter.VoterID) {
		return false
	}
	if filter.TargetUserID != "" && request.Operation.TargetUserID() != filter.TargetUserID {
		return false
	}
	if filter.CreatedFrom != nil && request.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && request.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.ExpiresFrom != nil && request.ExpiresAt.Before(*filter.ExpiresFrom) {
		return false
	}
	if filter.ExpiresTo != nil && request.ExpiresAt.After(*filter.ExpiresTo) {
		return false
	}
	return true
}

func (r *RequestRepository) insertIndexEntries(request *models.Request) {
	if entry := request.AccountIndexEntry(); entry != nil {
		r.Accounts.Insert(*entry)
	}
	r.Proposers.Insert(request.ProposerIndexEntry())
	r.Statuses.Insert(request.StatusIndexEntry())
	r.Creations.Insert(request.CreationTimeIndexEntry())
	r.Expirations.Insert(request.ExpirationTimeIndexEntry())
	for _, entry := range request.VoterIndexEntries() {
		r.Voters.Insert(entry)
	}
	if entry := request.UserIndexEntry(); entry != nil {
		r.Users.Insert(*entry)
	}
}

func (r *RequestRepository) removeIndexEntries(request *models.Request) {
	if entry := request.AccountIndexEntry(); entry != nil {
		r.Accounts.Remove(*entry)
	}
	r.Proposers.Remove(request.ProposerIndexEntry())
	r.Statuses.Remove(request.StatusIndexEntry())
	r.Creations.Remove(request.CreationTimeIndexEntry())
	r.Expirations.Remove(request.ExpirationTimeIndexEntry())
	for _, entry := range request.VoterIndexEntries() {
		r.Voters.Remove(entry)
	}
	if entry := request.UserIndexEntry(); entry != nil {
		r.Users.Remove(*entry)
	}
}
