package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/gateway"
	"github.com/wardenhq/warden/internal/models"
	appErrors "github.com/wardenhq/warden/pkg/errors"
)

type policyStore interface {
	FindAccessPolicies(resource models.Resource, action models.Action) []models.AccessPolicy
	SaveAccessPolicy(policy models.AccessPolicy) error
	GetAccessPolicy(id string) (*models.AccessPolicy, bool)
	RemoveAccessPolicy(id string) bool
	FindProposalPolicy(operationType models.OperationType) (*models.ProposalPolicy, bool)
	SaveProposalPolicy(policy models.ProposalPolicy) error
	GetProposalPolicy(id string) (*models.ProposalPolicy, bool)
	RemoveProposalPolicy(id string) bool
}

// PolicyService answers the two governance questions: may this caller perform
// this action on this resource, and has this vote set decided the request.
// Both checks are pure with respect to engine state; only the policy
// configuration and the identity provider feed them.
type PolicyService struct {
	repo       policyStore
	identities gateway.IdentityProvider
	logger     *zap.Logger
}

// NewPolicyService constructs the evaluator.
func NewPolicyService(repo policyStore, identities gateway.IdentityProvider, logger *zap.Logger) *PolicyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyService{repo: repo, identities: identities, logger: logger}
}

// Authorize evaluates the allow-list rules for the resource/action pair.
// Default-deny: with no matching policy the caller is rejected.
func (s *PolicyService) Authorize(ctx context.Context, caller string, resource models.Resource, action models.Action) error {
	for _, policy := range s.repo.FindAccessPolicies(resource, action) {
		for _, allowed := range policy.AllowedUsers {
			if allowed == caller {
				return nil
			}
		}
		for _, group := range policy.AllowedGroups {
			member, err := s.identities.IsMember(ctx, caller, group)
			if err != nil {
				s.logger.Warn("group membership lookup failed",
					zap.String("group", group), zap.Error(err))
				continue
			}
			if member {
				return nil
			}
		}
	}
	return appErrors.ErrUnauthorized
}

// EvaluateQuorum folds the ordered vote sequence against the quorum rule for
// the operation type. The fold is monotonic: the verdict of the first decided
// prefix stands for every super-sequence.
func (s *PolicyService) EvaluateQuorum(ctx context.Context, operationType models.OperationType, votes []models.Vote) (models.QuorumVerdict, error) {
	policy, ok := s.repo.FindProposalPolicy(operationType)
	if !ok {
		// No rule configured: a single approval decides. Recorded as an open
		// question decision in DESIGN.md.
		policy = &models.ProposalPolicy{Rule: models.QuorumRule{MinApprovals: 1}}
	}
	rule := policy.Rule

	eligible := func(voterID string) (bool, error) {
		if len(rule.Approvers) > 0 {
			for _, approver := range rule.Approvers {
				if approver == voterID {
					return true, nil
				}
			}
			return false, nil
		}
		if rule.ApproverGroup != "" {
			return s.identities.IsMember(ctx, voterID, rule.ApproverGroup)
		}
		return true, nil
	}

	minApprovals := rule.MinApprovals
	if minApprovals <= 0 {
		minApprovals = 1
	}

	approvals, participations := 0, 0
	for _, vote := range votes {
		ok, err := eligible(vote.VoterID)
		if err != nil {
			return models.QuorumPending, appErrors.Wrap(err, appErrors.ErrRemoteCallFailed.Code,
				appErrors.ErrRemoteCallFailed.Status, "group membership lookup failed")
		}
		if !ok {
			continue
		}
		participations++
		switch vote.Decision {
		case models.VoteDecisionApprove:
			approvals++
		case models.VoteDecisionReject:
			if rule.VetoOnReject {
				return models.QuorumUnsatisfiable, nil
			}
		}
		if approvals >= minApprovals {
			return models.QuorumSatisfied, nil
		}
		// With a fixed approver set the remaining possible approvals are
		// enumerable; approval becomes impossible once too many have rejected.
		if len(rule.Approvers) > 0 {
			remaining := len(rule.Approvers) - participations
			if approvals+remaining < minApprovals {
				return models.QuorumUnsatisfiable, nil
			}
		}
	}
	return models.QuorumPending, nil
}

// InstallAccessPolicy persists a new allow-list rule.
func (s *PolicyService) InstallAccessPolicy(policy models.AccessPolicy) error {
	return s.repo.SaveAccessPolicy(policy)
}

// ReplaceAccessPolicy swaps the rule stored under the id.
func (s *PolicyService) ReplaceAccessPolicy(id string, policy models.AccessPolicy) error {
	if _, ok := s.repo.GetAccessPolicy(id); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "access policy not found")
	}
	policy.ID = id
	return s.repo.SaveAccessPolicy(policy)
}

// DeleteAccessPolicy removes the rule stored under the id.
func (s *PolicyService) DeleteAccessPolicy(id string) error {
	if !s.repo.RemoveAccessPolicy(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "access policy not found")
	}
	return nil
}

// InstallProposalPolicy persists a new quorum rule.
func (s *PolicyService) InstallProposalPolicy(policy models.ProposalPolicy) error {
	return s.repo.SaveProposalPolicy(policy)
}

// ReplaceProposalPolicy swaps the quorum rule stored under the id.
func (s *PolicyService) ReplaceProposalPolicy(id string, policy models.ProposalPolicy) error {
	if _, ok := s.repo.GetProposalPolicy(id); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "proposal policy not found")
	}
	policy.ID = id
	return s.repo.SaveProposalPolicy(policy)
}

// DeleteProposalPolicy removes the quorum rule stored under the id.
func (s *PolicyService) DeleteProposalPolicy(id string) error {
	if !s.repo.RemoveProposalPolicy(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "proposal policy not found")
	}
	return nil
}
