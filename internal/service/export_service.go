package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/models"
	appErrors "github.com/wardenhq/warden/pkg/errors"
	"github.com/wardenhq/warden/pkg/export"
	"github.com/wardenhq/warden/pkg/storage"
)

// ExportFormat selects the report renderer.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult describes a rendered report and its signed download token.
type ExportResult struct {
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	RowCount  int       `json:"row_count"`
}

type exportRequestStore interface {
	FindByFilter(filter models.RequestFilter) []*models.Request
}

// ExportService renders request audit reports to CSV or PDF, stores them on
// disk and returns a signed download token.
type ExportService struct {
	requests  exportRequestStore
	policies  requestAuthorizer
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	files     *storage.ReportStore
	signer    *storage.DownloadSigner
	audit     auditLogger
	logger    *zap.Logger
	retention time.Duration
}

// ExportOption tunes the export service.
type ExportOption func(*ExportService)

// WithReportRetention overrides how long rendered report files are kept.
func WithReportRetention(retention time.Duration) ExportOption {
	return func(s *ExportService) {
		if retention > 0 {
			s.retention = retention
		}
	}
}

// NewExportService constructs the report exporter.
func NewExportService(
	requests exportRequestStore,
	policies requestAuthorizer,
	files *storage.ReportStore,
	signer *storage.DownloadSigner,
	audit auditLogger,
	logger *zap.Logger,
	opts ...ExportOption,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		requests:  requests,
		policies:  policies,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		files:     files,
		signer:    signer,
		audit:     audit,
		logger:    logger,
		retention: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportRequests renders the filtered request set as a report file.
func (s *ExportService) ExportRequests(ctx context.Context, caller string, filter models.RequestFilter, format ExportFormat) (*ExportResult, error) {
	if err := s.policies.Authorize(ctx, caller, models.ResourceRequest, models.ActionRead); err != nil {
		return nil, err
	}

	requests := s.requests.FindByFilter(filter)
	report := buildRequestReport(requests)

	var payload []byte
	var err error
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(report)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(report)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	fileName := fmt.Sprintf("requests-%s-%s.%s",
		time.Now().UTC().Format("20060102-150405"), exportID[:8], format)
	if err := s.files.Save(fileName, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to store report")
	}

	// Each export doubles as the retention sweep for earlier ones.
	if removed, err := s.files.Sweep(s.retention); err != nil {
		s.logger.Warn("failed to sweep stale reports", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("swept stale reports", zap.Int("count", len(removed)))
	}

	token, expiresAt, err := s.signer.Sign(exportID, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to sign report url")
	}

	if s.audit != nil {
		details, _ := json.Marshal(map[string]interface{}{
			"format": format,
			"rows":   len(requests),
			"file":   fileName,
		})
		if err := s.audit.Create(ctx, &models.AuditLog{
			Action:   models.AuditActionReportExport,
			Resource: string(models.ResourceRequest),
			Outcome:  "ok",
			Details:  details,
		}); err != nil {
			s.logger.Warn("failed to record export audit log", zap.Error(err))
		}
	}

	return &ExportResult{
		FileName:  fileName,
		Token:     token,
		ExpiresAt: expiresAt,
		RowCount:  len(requests),
	}, nil
}

// ResolveDownload validates a signed token and returns the stored file name.
func (s *ExportService) ResolveDownload(token string) (string, error) {
	claim, err := s.signer.Verify(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code,
			appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return claim.FileName, nil
}

// OpenReport returns the absolute path of a stored report file.
func (s *ExportService) OpenReport(fileName string) (string, error) {
	path, err := s.files.Path(fileName)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code,
			appErrors.ErrValidation.Status, "invalid report file name")
	}
	return path, nil
}

func buildRequestReport(requests []*models.Request) export.Report {
	columns := []export.Column{
		{Key: "id", Label: "ID", Width: 3},
		{Key: "operation", Label: "Operation", Width: 2},
		{Key: "proposer", Label: "Proposer"},
		{Key: "status", Label: "Status"},
		{Key: "votes", Label: "Votes", Width: 2},
		{Key: "created_at", Label: "Created At", Width: 2},
		{Key: "expires_at", Label: "Expires At", Width: 2},
		{Key: "result", Label: "Result", Width: 2},
	}
	rows := make([]map[string]string, 0, len(requests))
	for _, request := range requests {
		operationType, _ := request.Operation.Type()
		result := ""
		if request.ExecutionResult != nil {
			result = *request.ExecutionResult
		}
		votes := make([]string, 0, len(request.Votes))
		for _, vote := range request.Votes {
			votes = append(votes, fmt.Sprintf("%s:%s", vote.VoterID, vote.Decision))
		}
		rows = append(rows, map[string]string{
			"id":         request.ID.String(),
			"operation":  string(operationType),
			"proposer":   request.Proposer,
			"status":     string(request.Status),
			"votes":      strconv.Itoa(len(request.Votes)) + " [" + strings.Join(votes, " ") + "]",
			"created_at": request.CreatedAt.UTC().Format(time.RFC3339),
			"expires_at": request.ExpiresAt.UTC().Format(time.RFC3339),
			"result":     result,
		})
	}
	return export.Report{
		Title:       "Governance Requests",
		GeneratedAt: time.Now().UTC(),
		Columns:     columns,
		Rows:        rows,
	}
}
