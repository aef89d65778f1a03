package repository

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

const (
	accessPolicyPrefix   = "ap"
	proposalPolicyPrefix = "pp"
)

// PolicyRepository persists access policies and quorum (proposal) policies on
// the ordered substrate. Access policies are keyed by resource and action so
// a structural lookup is a bounded range scan. Saves re-key the row when the
// resource or action changed, so they hold the repository lock.
type PolicyRepository struct {
	mu sync.RWMutex
	db *store.Map
}

// NewPolicyRepository constructs the repository over a fresh ordered map.
func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{db: store.NewMap()}
}

func accessPolicyKey(resource models.Resource, action models.Action, id string) []byte {
	key := store.AppendString(nil, accessPolicyPrefix)
	key = store.AppendString(key, string(resource))
	key = store.AppendString(key, string(action))
	return store.AppendString(key, id)
}

func proposalPolicyKey(operationType models.OperationType, id string) []byte {
	key := store.AppendString(nil, proposalPolicyPrefix)
	key = store.AppendString(key, string(operationType))
	return store.AppendString(key, id)
}

// SaveAccessPolicy inserts or replaces an access policy.
func (r *PolicyRepository) SaveAccessPolicy(policy models.AccessPolicy) error {
	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode access policy: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-keying on resource/action change requires removing the old row first.
	r.removeAccessPolicy(policy.ID)
	r.db.Set(accessPolicyKey(policy.Resource, policy.Action, policy.ID), raw)
	return nil
}

// FindAccessPolicies returns every policy bound to the resource/action pair.
func (r *PolicyRepository) FindAccessPolicies(resource models.Resource, action models.Action) []models.AccessPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lower := store.AppendString(nil, accessPolicyPrefix)
	lower = store.AppendString(lower, string(resource))
	lower = store.AppendString(lower, string(action))

	upper := append(append([]byte(nil), lower...), 0xff)

	var out []models.AccessPolicy
	r.db.AscendRange(lower, upper, func(_, raw []byte) bool {
		var policy models.AccessPolicy
		if err := json.Unmarshal(raw, &policy); err == nil {
			out = append(out, policy)
		}
		return true
	})
	return out
}

// GetAccessPolicy finds an access policy by id.
func (r *PolicyRepository) GetAccessPolicy(id string) (*models.AccessPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy := r.getAccessPolicy(id)
	return policy, policy != nil
}

func (r *PolicyRepository) getAccessPolicy(id string) *models.AccessPolicy {
	var found *models.AccessPolicy
	r.ascendPrefix(accessPolicyPrefix, func(raw []byte) bool {
		var policy models.AccessPolicy
		if err := json.Unmarshal(raw, &policy); err == nil && policy.ID == id {
			found = &policy
			return false
		}
		return true
	})
	return found
}

// RemoveAccessPolicy deletes an access policy by id.
func (r *PolicyRepository) RemoveAccessPolicy(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeAccessPolicy(id)
}

func (r *PolicyRepository) removeAccessPolicy(id string) bool {
	policy := r.getAccessPolicy(id)
	if policy == nil {
		return false
	}
	return r.db.Delete(accessPolicyKey(policy.Resource, policy.Action, policy.ID))
}

// SaveProposalPolicy inserts or replaces a quorum policy.
func (r *PolicyRepository) SaveProposalPolicy(policy models.ProposalPolicy) error {
	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode proposal policy: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeProposalPolicy(policy.ID)
	r.db.Set(proposalPolicyKey(policy.OperationType, policy.ID), raw)
	return nil
}

// FindProposalPolicy resolves the quorum policy for an operation type. When
// several match, the first in key order wins.
func (r *PolicyRepository) FindProposalPolicy(operationType models.OperationType) (*models.ProposalPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lower := store.AppendString(nil, proposalPolicyPrefix)
	lower = store.AppendString(lower, string(operationType))
	upper := append(append([]byte(nil), lower...), 0xff)

	var found *models.ProposalPolicy
	r.db.AscendRange(lower, upper, func(_, raw []byte) bool {
		var policy models.ProposalPolicy
		if err := json.Unmarshal(raw, &policy); err == nil {
			found = &policy
			return false
		}
		return true
	})
	return found, found != nil
}

// GetProposalPolicy finds a quorum policy by id.
func (r *PolicyRepository) GetProposalPolicy(id string) (*models.ProposalPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy := r.getProposalPolicy(id)
	return policy, policy != nil
}

func (r *PolicyRepository) getProposalPolicy(id string) *models.ProposalPolicy {
	var found *models.ProposalPolicy
	r.ascendPrefix(proposalPolicyPrefix, func(raw []byte) bool {
		var policy models.ProposalPolicy
		if err := json.Unmarshal(raw, &policy); err == nil && policy.ID == id {
			found = &policy
			return false
		}
		return true
	})
	return found
}

// RemoveProposalPolicy deletes a quorum policy by id.
func (r *PolicyRepository) RemoveProposalPolicy(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeProposalPolicy(id)
}

func (r *PolicyRepository) removeProposalPolicy(id string) bool {
	policy := r.getProposalPolicy(id)
	if policy == nil {
		return false
	}
	return r.db.Delete(proposalPolicyKey(policy.OperationType, policy.ID))
}

func (r *PolicyRepository) ascendPrefix(prefix string, iter func(raw []byte) bool) {
	lower := store.AppendString(nil, prefix)
	upper := append(append([]byte(nil), lower...), 0xff)
	r.db.AscendRange(lower, upper, func(_, raw []byte) bool {
		return iter(raw)
	})
}
