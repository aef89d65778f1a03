package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/repository"
	appErrors "github.com/wardenhq/warden/pkg/errors"
)

type lifecyclePolicyStub struct {
	authorizeErr error
	verdict      func(votes []models.Vote) models.QuorumVerdict
}

func (s *lifecyclePolicyStub) Authorize(context.Context, string, models.Resource, models.Action) error {
	return s.authorizeErr
}

func (s *lifecyclePolicyStub) EvaluateQuorum(_ context.Context, _ models.OperationType, votes []models.Vote) (models.QuorumVerdict, error) {
	if s.verdict == nil {
		return models.QuorumPending, nil
	}
	return s.verdict(votes), nil
}

type execStub struct {
	repo  *repository.RequestRepository
	calls int
}

func (s *execStub) ExecuteAdopted(_ context.Context, requestID uuid.UUID) error {
	s.calls++
	if s.repo == nil {
		return nil
	}
	request, ok := s.repo.Get(requestID)
	if !ok {
		return appErrors.ErrNotFound
	}
	request.Status = models.RequestStatusCompleted
	result := "done"
	request.ExecutionResult = &result
	return s.repo.Save(request)
}

type notifyStub struct {
	events []models.RequestEvent
}

func (s *notifyStub) Notify(_ context.Context, event models.RequestEvent) {
	s.events = append(s.events, event)
}

func (s *notifyStub) kinds() []models.RequestEventKind {
	out := make([]models.RequestEventKind, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.Kind)
	}
	return out
}

type auditTrailStub struct {
	err  error
	logs []*models.AuditLog
}

func (s *auditTrailStub) Create(_ context.Context, log *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, log)
	return nil
}

type lifecycleFixture struct {
	svc      *RequestService
	repo     *repository.RequestRepository
	policies *lifecyclePolicyStub
	executor *execStub
	notifier *notifyStub
	audit    *auditTrailStub
	now      *time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &lifecycleFixture{
		repo:     repository.NewRequestRepository(),
		policies: &lifecyclePolicyStub{},
		notifier: &notifyStub{},
		audit:    &auditTrailStub{},
		now:      &now,
	}
	f.executor = &execStub{repo: f.repo}
	f.svc = NewRequestService(
		f.repo, f.policies, f.executor, f.notifier, f.audit, nil,
		WithRequestTTL(24*time.Hour),
		WithMaxListLimit(10),
		WithClock(func() time.Time { return *f.now }),
	)
	return f
}

func (f *lifecycleFixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func transferOperation() models.Operation {
	return models.Operation{
		Transfer: &models.TransferOperation{
			AccountID: "acct-1",
			To:        "addr-1",
			Amount:    "10",
		},
	}
}

func TestRequestServiceCreate(t *testing.T) {
	f := newLifecycleFixture(t)

	request, err := f.svc.Create(context.Background(), "alice", transferOperation())
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusCreated, request.Status)
	require.Equal(t, "alice", request.Proposer)
	require.Equal(t, f.now.Add(24*time.Hour), request.ExpiresAt)

	stored, ok := f.repo.Get(request.ID)
	require.True(t, ok)
	require.Equal(t, models.RequestStatusCreated, stored.Status)

	require.Equal(t, []models.RequestEventKind{models.RequestEventCreated}, f.notifier.kinds())
	require.Len(t, f.audit.logs, 1)
	require.Equal(t, models.AuditActionRequestCreate, f.audit.logs[0].Action)
}

func TestRequestServiceCreateUnauthorized(t *testing.T) {
	f := newLifecycleFixture(t)
	f.policies.authorizeErr = appErrors.ErrUnauthorized

	_, err := f.svc.Create(context.Background(), "mallory", transferOperation())
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	require.Equal(t, 0, f.repo.Len())
}

func TestRequestServiceCreateInvalidOperation(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.svc.Create(context.Background(), "alice", models.Operation{})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRequestServiceVoteAdoptsExactlyOnce(t *testing.T) {
	f := newLifecycleFixture(t)
	f.policies.verdict = func(votes []models.Vote) models.QuorumVerdict {
		approvals := 0
		for _, vote := range votes {
			if vote.Decision == models.VoteDecisionApprove {
				approvals++
			}
		}
		if approvals >= 2 {
			return models.QuorumSatisfied
		}
		return models.QuorumPending
	}

	request, err := f.svc.Create(context.Background(), "alice", transferOperation())
	require.NoError(t, err)

	first, err := f.svc.Vote(context.Background(), request.ID, "bob", models.VoteDecisionApprove)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusCreated, first.Status)
	require.Equal(t, 0, f.executor.calls)

	second, err := f.svc.Vote(context.Background(), request.ID, "carol", models.VoteDecisionApprove)
	require.NoError(t, err)
	require.Equal(t, 1, f.executor.calls)
	// The returned request reflects the executor's outcome.
	require.Equal(t, models.RequestStatusCompleted, second.Status)

	// A third vote cannot re-trigger execution.
	_, err = f.svc.Vote(context.Background(), request.ID, "dave", models.VoteDecisionApprove)
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyDecided))
	require.Equal(t, 1, f.executor.calls)

	require.Contains(t, f.notifier.kinds(), models.RequestEventAdopted)
}

func TestRequestServiceVoteRejects(t *testing.T) {
	f := newLifecycleFixture(t)
	f.policies.verdict = func(votes []models.Vote) models.QuorumVerdict {
		return models.QuorumUnsatisfiable
	}

	request, err := f.svc.Create(context.Background(), "alice", transferOperation())
	require.NoError(t, err)

	voted, err := f.svc.Vote(context.Background(), request.ID, "bob", models.VoteDecisionReject)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusRejected, voted.Status)
	require.Equal(t, 0, f.executor.calls)
	require.Contains(t, f.notifier.kinds(), models.RequestEventRejected)
}

func TestRequestServiceVoteDuplicate(t *testing.T) {
	f := newLifecycleFixture(t)

	request, err := f.svc.Create(context.Background(), "alice", transferOperation())
	require.NoError(t, err)

	_, err = f.svc.Vote(context.Background(), request.ID, "bob", models.VoteDecisionApprove)
	require.NoError(t, err)

	_, err = f.svc.Vote(context.Background(), request.ID, "bob", models.VoteDecisionReject)
	require.True(t, appErrors.Is(err, appErrors.ErrDuplicateVote))
}

func TestRequestServiceVoteNotFound(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.svc.Vote(context.Background(), uuid.New(), "bob", models.VoteDecisionApprove)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRequestServiceVoteOnExpiredPersistsExpiry(t *testing.T) {
	f := newLifecycleFixture(t)

	request, err := f.svc.Create(context.Background(), "alice", transferOperation())
	require.NoError(t, err)

	f.advance(25 * time.Hour)

	_, err = f.svc.Vote(context.Background(), request.ID, "bob", models.VoteDecisionApprove)
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyDecided))

	stored, ok := f.repo.Get(request.ID)
	require.True(t, ok)
	require.Equal(t, models.RequestStatusExpired, stored.Status)
	require.Contains(t, f.notifier.kinds(), models.RequestEventExpired)
}

func TestRequestServiceGetLazyExpiryIsIdempotent(t *testing.T) {
	f := newLifecycleFixture(t)

	request, err := f.svc.Create(context.Background(), "alice", transferOperation())
	require.NoError(t, err)

	f.advance(25 * time.Hour)

	got, err := f.svc.Get(context.Background(), "alice", request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusExpired, got.Status)

	// A second read settles nothing further.
	_, err = f.svc.Get(context.Background(), "alice", request.ID)
	require.NoError(t, err)

	expired := 0
	for _, kind := range f.notifier.kinds() {
		if kind == models.RequestEventExpired {
			expired++
		}
	}
	require.Equal(t, 1, expired)
}

func TestRequestServiceListMasksExpiredWithoutPersisting(t *testing.T) {
	f := newLifecycleFixture(t)

	request, err := f.svc.Create(context.Background(), "alice", transferOperation())
	require.NoError(t, err)

	f.advance(25 * time.Hour)

	results, err := f.svc.List(context.Background(), "alice", models.RequestFilter{ProposerID: "alice"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, models.RequestStatusExpired, results[0].Status)

	// Expiry is settled on individual access, not on list reads.
	stored, ok := f.repo.Get(request.ID)
	require.True(t, ok)
	require.Equal(t, models.RequestStatusCreated, stored.Status)
}

func TestRequestServiceListCapsLimit(t *testing.T) {
	f := newLifecycleFixture(t)

	for i := 0; i < 15; i++ {
		_, err := f.svc.Create(context.Background(), "alice", transferOperation())
		require.NoError(t, err)
		f.advance(time.Second)
	}

	results, err := f.svc.List(context.Background(), "alice", models.RequestFilter{ProposerID: "alice", Limit: 100})
	require.NoError(t, err)
	require.Len(t, results, 10)
}

// FuzzVoteSequence drives the lifecycle with arbitrary vote sequences,
// including repeated voters, and checks the invariants that must hold for
// every sequence: no voter is ever recorded twice, and once a quorum verdict
// decides the request no later vote can change or revert it.
func FuzzVoteSequence(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 0, 1}, uint8(2))
	f.Add([]byte{5, 5, 5, 5}, uint8(1))
	f.Add([]byte{0, 13, 1, 2}, uint8(3))
	f.Add([]byte{}, uint8(1))

	f.Fuzz(func(t *testing.T, seq []byte, rawThreshold uint8) {
		fixture := newLifecycleFixture(t)
		threshold := int(rawThreshold%3) + 1
		fixture.policies.verdict = func(votes []models.Vote) models.QuorumVerdict {
			approvals := 0
			for _, vote := range votes {
				if vote.Decision == models.VoteDecisionReject {
					return models.QuorumUnsatisfiable
				}
				approvals++
			}
			if approvals >= threshold {
				return models.QuorumSatisfied
			}
			return models.QuorumPending
		}

		request, err := fixture.svc.Create(context.Background(), "alice", transferOperation())
		require.NoError(t, err)

		decided := false
		for _, b := range seq {
			voter := fmt.Sprintf("voter-%d", b%8)
			decision := models.VoteDecisionApprove
			if b%16 >= 12 {
				decision = models.VoteDecisionReject
			}

			_, voteErr := fixture.svc.Vote(context.Background(), request.ID, voter, decision)
			stored, ok := fixture.repo.Get(request.ID)
			require.True(t, ok)

			seen := make(map[string]struct{}, len(stored.Votes))
			for _, vote := range stored.Votes {
				_, dup := seen[vote.VoterID]
				require.False(t, dup, "voter %s recorded twice", vote.VoterID)
				seen[vote.VoterID] = struct{}{}
			}

			if decided {
				require.True(t, appErrors.Is(voteErr, appErrors.ErrAlreadyDecided))
				require.NotEqual(t, models.RequestStatusCreated, stored.Status)
			}
			if stored.Status != models.RequestStatusCreated {
				decided = true
			}
			if voteErr != nil {
				require.True(t,
					appErrors.Is(voteErr, appErrors.ErrAlreadyDecided) ||
						appErrors.Is(voteErr, appErrors.ErrDuplicateVote))
			}
		}
	})
}
