package dto

import (
	"strings"
	"time"

	"github.com/wardenhq/warden/internal/models"
)

// CreateRequestRequest is the payload for submitting a governance request.
// Exactly one operation variant must be populated.
type CreateRequestRequest struct {
	Operation models.Operation `json:"operation"`
}

// VoteRequest carries one voter's decision.
type VoteRequest struct {
	Decision models.VoteDecision `json:"decision" binding:"required"`
}

// RequestQuery captures the list filter query parameters.
type RequestQuery struct {
	Status       string     `form:"status"`
	AccountID    string     `form:"account_id"`
	Proposer     string     `form:"proposer"`
	Voter        string     `form:"voter"`
	TargetUserID string     `form:"target_user_id"`
	CreatedFrom  *time.Time `form:"created_from" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo    *time.Time `form:"created_to" time_format:"2006-01-02T15:04:05Z07:00"`
	ExpiresFrom  *time.Time `form:"expires_from" time_format:"2006-01-02T15:04:05Z07:00"`
	ExpiresTo    *time.Time `form:"expires_to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit        int        `form:"limit"`
	Offset       int        `form:"offset"`
}

// ExportQuery selects the report format on top of the list filter.
type ExportQuery struct {
	RequestQuery
	Format string `form:"format"`
}

// RequestResponse is the outward representation of a request.
type RequestResponse struct {
	ID              string           `json:"id"`
	Proposer        string           `json:"proposer"`
	OperationType   string           `json:"operation_type"`
	Operation       models.Operation `json:"operation"`
	Status          string           `json:"status"`
	Votes           []models.Vote    `json:"votes"`
	CreatedAt       time.Time        `json:"created_at"`
	ExpiresAt       time.Time        `json:"expires_at"`
	ExecutionResult *string          `json:"execution_result,omitempty"`
}

// NewRequestResponse maps the entity into its response shape.
func NewRequestResponse(request *models.Request) RequestResponse {
	operationType, _ := request.Operation.Type()
	votes := request.Votes
	if votes == nil {
		votes = []models.Vote{}
	}
	return RequestResponse{
		ID:              request.ID.String(),
		Proposer:        request.Proposer,
		OperationType:   string(operationType),
		Operation:       request.Operation,
		Status:          string(request.Status),
		Votes:           votes,
		CreatedAt:       request.CreatedAt,
		ExpiresAt:       request.ExpiresAt,
		ExecutionResult: request.ExecutionResult,
	}
}

// NewRequestResponses maps a result page.
func NewRequestResponses(requests []*models.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for _, request := range requests {
		out = append(out, NewRequestResponse(request))
	}
	return out
}

// Filter converts the query into the storage-level filter.
func (q RequestQuery) Filter() models.RequestFilter {
	filter := models.RequestFilter{
		AccountID:    q.AccountID,
		ProposerID:   q.Proposer,
		VoterID:      q.Voter,
		TargetUserID: q.TargetUserID,
		CreatedFrom:  q.CreatedFrom,
		CreatedTo:    q.CreatedTo,
		ExpiresFrom:  q.ExpiresFrom,
		ExpiresTo:    q.ExpiresTo,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if q.Status != "" {
		filter.Statuses = parseStatuses(q.Status)
	}
	return filter
}

func parseStatuses(raw string) []models.RequestStatus {
	parts := strings.Split(raw, ",")
	statuses := make([]models.RequestStatus, 0, len(parts))
	for _, part := range parts {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		statuses = append(statuses, models.RequestStatus(part))
	}
	return statuses
}
