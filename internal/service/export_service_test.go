package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/models"
	appErrors "github.com/wardenhq/warden/pkg/errors"
	"github.com/wardenhq/warden/pkg/storage"
)

type exportStoreStub struct {
	requests []*models.Request
}

func (s *exportStoreStub) FindByFilter(models.RequestFilter) []*models.Request {
	return s.requests
}

func newExportFixture(t *testing.T, policies *lifecyclePolicyStub) (*ExportService, *auditTrailStub) {
	t.Helper()
	files, err := storage.NewReportStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadSigner("secret", time.Hour)
	audit := &auditTrailStub{}

	result := "done"
	store := &exportStoreStub{requests: []*models.Request{{
		ID:              uuid.New(),
		Proposer:        "alice",
		Status:          models.RequestStatusCompleted,
		Votes:           []models.Vote{{VoterID: "bob", Decision: models.VoteDecisionApprove}},
		CreatedAt:       time.Now().UTC(),
		ExpiresAt:       time.Now().UTC().Add(time.Hour),
		ExecutionResult: &result,
	}}}
	return NewExportService(store, policies, files, signer, audit, zap.NewNop()), audit
}

func TestExportRequestsCSVRoundTrip(t *testing.T) {
	svc, audit := newExportFixture(t, &lifecyclePolicyStub{})

	result, err := svc.ExportRequests(context.Background(), "alice", models.RequestFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount)
	require.NotEmpty(t, result.Token)
	require.False(t, result.ExpiresAt.IsZero())

	fileName, err := svc.ResolveDownload(result.Token)
	require.NoError(t, err)
	require.Equal(t, result.FileName, fileName)

	path, err := svc.OpenReport(fileName)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "alice")
	require.Contains(t, string(content), "bob:APPROVE")

	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionReportExport, audit.logs[0].Action)
}

func TestExportRequestsUnauthorized(t *testing.T) {
	svc, audit := newExportFixture(t, &lifecyclePolicyStub{authorizeErr: appErrors.ErrUnauthorized})

	_, err := svc.ExportRequests(context.Background(), "mallory", models.RequestFilter{}, ExportFormatCSV)
	require.Error(t, err)
	require.Empty(t, audit.logs)
}

func TestExportRequestsRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t, &lifecyclePolicyStub{})

	_, err := svc.ExportRequests(context.Background(), "alice", models.RequestFilter{}, ExportFormat("xml"))
	require.Error(t, err)
}

func TestOpenReportRejectsTraversal(t *testing.T) {
	svc, _ := newExportFixture(t, &lifecyclePolicyStub{})

	_, err := svc.OpenReport("../../etc/passwd")
	require.Error(t, err)
}
