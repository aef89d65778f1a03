package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/repository"
	appErrors "github.com/wardenhq/warden/pkg/errors"
)

type identityStub struct {
	memberships map[string][]string
	err         error
}

func (s *identityStub) IsMember(_ context.Context, identity, group string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, candidate := range s.memberships[identity] {
		if candidate == group {
			return true, nil
		}
	}
	return false, nil
}

func newPolicyServiceForTest(t *testing.T, identities *identityStub) (*PolicyService, *repository.PolicyRepository) {
	t.Helper()
	repo := repository.NewPolicyRepository()
	if identities == nil {
		identities = &identityStub{}
	}
	return NewPolicyService(repo, identities, nil), repo
}

func TestAuthorizeDefaultDeny(t *testing.T) {
	svc, _ := newPolicyServiceForTest(t, nil)

	err := svc.Authorize(context.Background(), "alice", models.ResourceTransfer, models.ActionCreate)
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthorizeDirectUser(t *testing.T) {
	svc, repo := newPolicyServiceForTest(t, nil)
	require.NoError(t, repo.SaveAccessPolicy(models.AccessPolicy{
		ID:           "ap-1",
		Resource:     models.ResourceTransfer,
		Action:       models.ActionCreate,
		AllowedUsers: []string{"alice"},
	}))

	require.NoError(t, svc.Authorize(context.Background(), "alice", models.ResourceTransfer, models.ActionCreate))
	require.Error(t, svc.Authorize(context.Background(), "bob", models.ResourceTransfer, models.ActionCreate))
	// The grant is scoped to the action, not the resource.
	require.Error(t, svc.Authorize(context.Background(), "alice", models.ResourceTransfer, models.ActionVote))
}

func TestAuthorizeGroupMembership(t *testing.T) {
	identities := &identityStub{memberships: map[string][]string{"carol": {"treasury"}}}
	svc, repo := newPolicyServiceForTest(t, identities)
	require.NoError(t, repo.SaveAccessPolicy(models.AccessPolicy{
		ID:            "ap-1",
		Resource:      models.ResourceTransfer,
		Action:        models.ActionVote,
		AllowedGroups: []string{"treasury"},
	}))

	require.NoError(t, svc.Authorize(context.Background(), "carol", models.ResourceTransfer, models.ActionVote))
	require.Error(t, svc.Authorize(context.Background(), "mallory", models.ResourceTransfer, models.ActionVote))
}

func TestEvaluateQuorumDefaultsToSingleApproval(t *testing.T) {
	svc, _ := newPolicyServiceForTest(t, nil)

	verdict, err := svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, nil)
	require.NoError(t, err)
	require.Equal(t, models.QuorumPending, verdict)

	verdict, err = svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, []models.Vote{
		{VoterID: "alice", Decision: models.VoteDecisionApprove},
	})
	require.NoError(t, err)
	require.Equal(t, models.QuorumSatisfied, verdict)
}

func TestEvaluateQuorumTwoOfThree(t *testing.T) {
	svc, repo := newPolicyServiceForTest(t, nil)
	require.NoError(t, repo.SaveProposalPolicy(models.ProposalPolicy{
		ID:            "pp-1",
		OperationType: models.OperationTypeTransfer,
		Rule: models.QuorumRule{
			Approvers:    []string{"alice", "bob", "carol"},
			MinApprovals: 2,
		},
	}))

	votes := []models.Vote{{VoterID: "alice", Decision: models.VoteDecisionApprove}}
	verdict, err := svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, votes)
	require.NoError(t, err)
	require.Equal(t, models.QuorumPending, verdict)

	votes = append(votes, models.Vote{VoterID: "bob", Decision: models.VoteDecisionApprove})
	verdict, err = svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, votes)
	require.NoError(t, err)
	require.Equal(t, models.QuorumSatisfied, verdict)

	// The verdict of the decided prefix stands for every super-sequence.
	votes = append(votes, models.Vote{VoterID: "carol", Decision: models.VoteDecisionReject})
	verdict, err = svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, votes)
	require.NoError(t, err)
	require.Equal(t, models.QuorumSatisfied, verdict)
}

func TestEvaluateQuorumVetoOnReject(t *testing.T) {
	svc, repo := newPolicyServiceForTest(t, nil)
	require.NoError(t, repo.SaveProposalPolicy(models.ProposalPolicy{
		ID:            "pp-1",
		OperationType: models.OperationTypeUpgrade,
		Rule: models.QuorumRule{
			Approvers:    []string{"alice", "bob", "carol"},
			MinApprovals: 2,
			VetoOnReject: true,
		},
	}))

	votes := []models.Vote{
		{VoterID: "alice", Decision: models.VoteDecisionReject},
		{VoterID: "bob", Decision: models.VoteDecisionApprove},
		{VoterID: "carol", Decision: models.VoteDecisionApprove},
	}
	verdict, err := svc.EvaluateQuorum(context.Background(), models.OperationTypeUpgrade, votes)
	require.NoError(t, err)
	require.Equal(t, models.QuorumUnsatisfiable, verdict)
}

func TestEvaluateQuorumUnsatisfiableByArithmetic(t *testing.T) {
	svc, repo := newPolicyServiceForTest(t, nil)
	require.NoError(t, repo.SaveProposalPolicy(models.ProposalPolicy{
		ID:            "pp-1",
		OperationType: models.OperationTypeTransfer,
		Rule: models.QuorumRule{
			Approvers:    []string{"alice", "bob", "carol"},
			MinApprovals: 2,
		},
	}))

	votes := []models.Vote{
		{VoterID: "alice", Decision: models.VoteDecisionReject},
		{VoterID: "bob", Decision: models.VoteDecisionReject},
	}
	verdict, err := svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, votes)
	require.NoError(t, err)
	require.Equal(t, models.QuorumUnsatisfiable, verdict)
}

func TestEvaluateQuorumIgnoresIneligibleVoters(t *testing.T) {
	svc, repo := newPolicyServiceForTest(t, nil)
	require.NoError(t, repo.SaveProposalPolicy(models.ProposalPolicy{
		ID:            "pp-1",
		OperationType: models.OperationTypeTransfer,
		Rule: models.QuorumRule{
			Approvers:    []string{"alice"},
			MinApprovals: 1,
		},
	}))

	votes := []models.Vote{{VoterID: "mallory", Decision: models.VoteDecisionApprove}}
	verdict, err := svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, votes)
	require.NoError(t, err)
	require.Equal(t, models.QuorumPending, verdict)
}

func TestEvaluateQuorumGroupLookupFailure(t *testing.T) {
	identities := &identityStub{err: errors.New("directory unreachable")}
	svc, repo := newPolicyServiceForTest(t, identities)
	require.NoError(t, repo.SaveProposalPolicy(models.ProposalPolicy{
		ID:            "pp-1",
		OperationType: models.OperationTypeTransfer,
		Rule: models.QuorumRule{
			ApproverGroup: "treasury",
			MinApprovals:  1,
		},
	}))

	votes := []models.Vote{{VoterID: "alice", Decision: models.VoteDecisionApprove}}
	_, err := svc.EvaluateQuorum(context.Background(), models.OperationTypeTransfer, votes)
	require.True(t, appErrors.Is(err, appErrors.ErrRemoteCallFailed))
}

func TestPolicyServiceReplaceAndDelete(t *testing.T) {
	svc, _ := newPolicyServiceForTest(t, nil)

	err := svc.ReplaceAccessPolicy("missing", models.AccessPolicy{})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	err = svc.DeleteAccessPolicy("missing")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.InstallAccessPolicy(models.AccessPolicy{
		ID:       "ap-1",
		Resource: models.ResourceRequest,
		Action:   models.ActionRead,
	}))
	require.NoError(t, svc.ReplaceAccessPolicy("ap-1", models.AccessPolicy{
		Resource:     models.ResourceRequest,
		Action:       models.ActionRead,
		AllowedUsers: []string{"alice"},
	}))
	require.NoError(t, svc.DeleteAccessPolicy("ap-1"))

	err = svc.ReplaceProposalPolicy("missing", models.ProposalPolicy{})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	err = svc.DeleteProposalPolicy("missing")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
