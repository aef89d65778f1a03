package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wardenhq/warden/internal/models"
)

func transferRequest(proposer, accountID string, createdAt time.Time) *models.Request {
	return &models.Request{
		ID:       uuid.New(),
		Proposer: proposer,
		Operation: models.Operation{
			Transfer: &models.TransferOperation{
				AccountID: accountID,
				To:        "addr-1",
				Amount:    "10",
			},
		},
		Status:    models.RequestStatusCreated,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(24 * time.Hour),
	}
}

func TestRequestRepositorySaveAndGet(t *testing.T) {
	repo := NewRequestRepository()
	request := transferRequest("alice", "acct-1", time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, repo.Save(request))

	loaded, ok := repo.Get(request.ID)
	require.True(t, ok)
	require.Equal(t, request.ID, loaded.ID)
	require.Equal(t, "alice", loaded.Proposer)
	require.NotNil(t, loaded.Operation.Transfer)
	require.Equal(t, "acct-1", loaded.Operation.Transfer.AccountID)

	_, ok = repo.Get(uuid.New())
	require.False(t, ok)
}

func TestRequestRepositoryStatusIndexFollowsTransitions(t *testing.T) {
	repo := NewRequestRepository()
	request := transferRequest("alice", "acct-1", time.Now().UTC())
	require.NoError(t, repo.Save(request))

	created := repo.FindByFilter(models.RequestFilter{
		Statuses: []models.RequestStatus{models.RequestStatusCreated},
	})
	require.Len(t, created, 1)

	request.Status = models.RequestStatusAdopted
	require.NoError(t, repo.Save(request))

	created = repo.FindByFilter(models.RequestFilter{
		Statuses: []models.RequestStatus{models.RequestStatusCreated},
	})
	require.Empty(t, created)

	adopted := repo.FindByFilter(models.RequestFilter{
		Statuses: []models.RequestStatus{models.RequestStatusAdopted},
	})
	require.Len(t, adopted, 1)

	// The old status entry must be gone from the index itself, not just
	// filtered out.
	require.False(t, repo.Statuses.Exists(models.StatusIndexEntry{
		Status:    models.RequestStatusCreated,
		RequestID: request.ID,
	}))
}

func TestRequestRepositoryFindByProposerWithWindow(t *testing.T) {
	repo := NewRequestRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	early := transferRequest("alice", "acct-1", base)
	late := transferRequest("alice", "acct-1", base.Add(2*time.Hour))
	other := transferRequest("bob", "acct-1", base.Add(time.Hour))
	for _, request := range []*models.Request{early, late, other} {
		require.NoError(t, repo.Save(request))
	}

	from := base.Add(time.Hour)
	results := repo.FindByFilter(models.RequestFilter{
		ProposerID:  "alice",
		CreatedFrom: &from,
	})
	require.Len(t, results, 1)
	require.Equal(t, late.ID, results[0].ID)

	all := repo.FindByFilter(models.RequestFilter{ProposerID: "alice"})
	require.Len(t, all, 2)
}

func TestRequestRepositoryFindByVoter(t *testing.T) {
	repo := NewRequestRepository()
	request := transferRequest("alice", "acct-1", time.Now().UTC())
	request.Votes = []models.Vote{
		{VoterID: "bob", Decision: models.VoteDecisionApprove, VotedAt: time.Now().UTC()},
		{VoterID: "carol", Decision: models.VoteDecisionReject, VotedAt: time.Now().UTC()},
	}
	require.NoError(t, repo.Save(request))

	results := repo.FindByFilter(models.RequestFilter{VoterID: "bob"})
	require.Len(t, results, 1)
	require.Equal(t, request.ID, results[0].ID)

	require.Empty(t, repo.FindByFilter(models.RequestFilter{VoterID: "dave"}))
}

func TestRequestRepositoryFindByAccount(t *testing.T) {
	repo := NewRequestRepository()
	first := transferRequest("alice", "acct-1", time.Now().UTC())
	second := transferRequest("alice", "acct-2", time.Now().UTC())
	require.NoError(t, repo.Save(first))
	require.NoError(t, repo.Save(second))

	results := repo.FindByFilter(models.RequestFilter{AccountID: "acct-1"})
	require.Len(t, results, 1)
	require.Equal(t, first.ID, results[0].ID)
}

func TestRequestRepositoryExpirationWindow(t *testing.T) {
	repo := NewRequestRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	soon := transferRequest("alice", "acct-1", base)
	soon.ExpiresAt = base.Add(time.Hour)
	later := transferRequest("alice", "acct-1", base)
	later.ExpiresAt = base.Add(48 * time.Hour)
	require.NoError(t, repo.Save(soon))
	require.NoError(t, repo.Save(later))

	to := base.Add(2 * time.Hour)
	results := repo.FindByFilter(models.RequestFilter{ExpiresTo: &to})
	require.Len(t, results, 1)
	require.Equal(t, soon.ID, results[0].ID)
}

func TestRequestRepositoryOrderingAndPaging(t *testing.T) {
	repo := NewRequestRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		request := transferRequest("alice", "acct-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Save(request))
		ids = append(ids, request.ID)
	}

	results := repo.FindByFilter(models.RequestFilter{ProposerID: "alice"})
	require.Len(t, results, 3)
	require.Equal(t, ids[2], results[0].ID)
	require.Equal(t, ids[0], results[2].ID)

	page := repo.FindByFilter(models.RequestFilter{ProposerID: "alice", Offset: 1, Limit: 1})
	require.Len(t, page, 1)
	require.Equal(t, ids[1], page[0].ID)
}

func TestRequestRepositoryRemoveClearsIndexes(t *testing.T) {
	repo := NewRequestRepository()
	request := transferRequest("alice", "acct-1", time.Now().UTC())
	request.Votes = []models.Vote{{VoterID: "bob", Decision: models.VoteDecisionApprove}}
	require.NoError(t, repo.Save(request))

	require.True(t, repo.Remove(request.ID))
	require.False(t, repo.Remove(request.ID))

	require.Empty(t, repo.FindByFilter(models.RequestFilter{ProposerID: "alice"}))
	require.Empty(t, repo.FindByFilter(models.RequestFilter{VoterID: "bob"}))
	require.Empty(t, repo.FindByFilter(models.RequestFilter{AccountID: "acct-1"}))
	require.Equal(t, 0, repo.Len())
}

func TestRequestRepositoryRebuildIndexes(t *testing.T) {
	repo := NewRequestRepository()
	request := transferRequest("alice", "acct-1", time.Now().UTC())
	require.NoError(t, repo.Save(request))

	repo.RebuildIndexes()

	results := repo.FindByFilter(models.RequestFilter{ProposerID: "alice"})
	require.Len(t, results, 1)
	require.Equal(t, request.ID, results[0].ID)
}

func TestRequestRepositoryConcurrentSaveAndFilter(t *testing.T) {
	repo := NewRequestRepository()
	base := time.Now().UTC()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				request := transferRequest("alice", "acct-1", base.Add(time.Duration(w*50+i)*time.Millisecond))
				require.NoError(t, repo.Save(request))

				// Re-save with a vote to exercise the remove-then-insert path.
				request.Votes = []models.Vote{{VoterID: "bob", Decision: models.VoteDecisionApprove}}
				require.NoError(t, repo.Save(request))

				repo.FindByFilter(models.RequestFilter{ProposerID: "alice"})
				repo.Get(request.ID)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 200, repo.Len())
	require.Len(t, repo.FindByFilter(models.RequestFilter{ProposerID: "alice"}), 200)
	require.Len(t, repo.FindByFilter(models.RequestFilter{VoterID: "bob"}), 200)
}

func TestRequestRepositoryGetReportsCorruptRow(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	repo := NewRequestRepository(WithRepositoryLogger(zap.New(core)))

	id := uuid.New()
	repo.db.Set(id[:], []byte("{not json"))

	_, ok := repo.Get(id)
	require.False(t, ok)
	require.Equal(t, 1, logs.FilterMessage("corrupt request row").Len())

	// List skips the corrupt row instead of aborting the scan.
	good := transferRequest("alice", "acct-1", time.Now().UTC())
	require.NoError(t, repo.Save(good))
	all := repo.List()
	require.Len(t, all, 1)
	require.Equal(t, good.ID, all[0].ID)
}
