package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/models"
	appErrors "github.com/wardenhq/warden/pkg/errors"
)

type requestStore interface {
	Get(id uuid.UUID) (*models.Request, bool)
	Save(request *models.Request) error
	FindByFilter(filter models.RequestFilter) []*models.Request
}

type requestAuthorizer interface {
	Authorize(ctx context.Context, caller string, resource models.Resource, action models.Action) error
	EvaluateQuorum(ctx context.Context, operationType models.OperationType, votes []models.Vote) (models.QuorumVerdict, error)
}

type adoptedExecutor interface {
	ExecuteAdopted(ctx context.Context, requestID uuid.UUID) error
}

type lifecycleMetrics interface {
	ObserveRequestCreated(operationType models.OperationType)
	ObserveVote(decision models.VoteDecision)
}

// RequestService owns the request lifecycle: creation, voting, expiry and the
// single hand-off of an adopted request to the executor. Every mutation goes
// through Save so the secondary indexes stay consistent with the entity.
type RequestService struct {
	requests requestStore
	policies requestAuthorizer
	executor adoptedExecutor
	notifier requestNotifier
	audit    auditLogger
	metrics  lifecycleMetrics
	logger   *zap.Logger
	ttl      time.Duration
	maxLimit int
	now      func() time.Time
}

// RequestServiceOption customizes construction.
type RequestServiceOption func(*RequestService)

// WithClock substitutes the time source.
func WithClock(now func() time.Time) RequestServiceOption {
	return func(s *RequestService) { s.now = now }
}

// WithRequestTTL overrides the default validity window of new requests.
func WithRequestTTL(ttl time.Duration) RequestServiceOption {
	return func(s *RequestService) { s.ttl = ttl }
}

// WithMaxListLimit caps the page size of list queries.
func WithMaxListLimit(limit int) RequestServiceOption {
	return func(s *RequestService) { s.maxLimit = limit }
}

// WithLifecycleMetrics registers counters for created requests and cast votes.
func WithLifecycleMetrics(metrics lifecycleMetrics) RequestServiceOption {
	return func(s *RequestService) { s.metrics = metrics }
}

// NewRequestService constructs the lifecycle manager.
func NewRequestService(
	requests requestStore,
	policies requestAuthorizer,
	executor adoptedExecutor,
	notifier requestNotifier,
	audit auditLogger,
	logger *zap.Logger,
	opts ...RequestServiceOption,
) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RequestService{
		requests: requests,
		policies: policies,
		executor: executor,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		ttl:      7 * 24 * time.Hour,
		maxLimit: 100,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new request in the Created state. The caller
// must hold CREATE on the resource the operation touches.
func (s *RequestService) Create(ctx context.Context, proposer string, operation models.Operation) (*models.Request, error) {
	operationType, err := operation.Type()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code,
			appErrors.ErrValidation.Status, "invalid operation payload")
	}
	if err := s.policies.Authorize(ctx, proposer, operationType.Resource(), models.ActionCreate); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	request := &models.Request{
		ID:        uuid.New(),
		Proposer:  proposer,
		Operation: operation,
		Status:    models.RequestStatusCreated,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.requests.Save(request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to persist request")
	}

	s.logger.Info("request created",
		zap.String("request_id", request.ID.String()),
		zap.String("operation_type", string(operationType)),
		zap.String("proposer", proposer))
	s.auditRequest(ctx, models.AuditActionRequestCreate, request, proposer, "ok")
	s.notify(ctx, models.RequestEventCreated, request, operationType)
	if s.metrics != nil {
		s.metrics.ObserveRequestCreated(operationType)
	}
	return request, nil
}

// Vote appends the caller's decision and re-evaluates the quorum. An adopting
// vote triggers execution exactly once; later votes on the same request are
// rejected because the status is already terminal or executing.
func (s *RequestService) Vote(ctx context.Context, requestID uuid.UUID, voter string, decision models.VoteDecision) (*models.Request, error) {
	request, ok := s.requests.Get(requestID)
	if !ok {
		return nil, appErrors.ErrNotFound
	}

	if expired, err := s.expireIfDue(request); err != nil {
		return nil, err
	} else if expired {
		return nil, appErrors.Clone(appErrors.ErrAlreadyDecided, "request has expired")
	}
	if request.Status != models.RequestStatusCreated {
		return nil, appErrors.ErrAlreadyDecided
	}
	if request.HasVoted(voter) {
		return nil, appErrors.ErrDuplicateVote
	}

	operationType, err := request.Operation.Type()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "stored operation is invalid")
	}
	if err := s.policies.Authorize(ctx, voter, operationType.Resource(), models.ActionVote); err != nil {
		return nil, err
	}

	request.Votes = append(request.Votes, models.Vote{
		VoterID:  voter,
		Decision: decision,
		VotedAt:  s.now().UTC(),
	})

	verdict, err := s.policies.EvaluateQuorum(ctx, operationType, request.Votes)
	if err != nil {
		return nil, err
	}

	event := models.RequestEventKind("")
	switch verdict {
	case models.QuorumSatisfied:
		request.Status = models.RequestStatusAdopted
		event = models.RequestEventAdopted
	case models.QuorumUnsatisfiable:
		request.Status = models.RequestStatusRejected
		event = models.RequestEventRejected
	}

	if err := s.requests.Save(request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to persist vote")
	}

	s.auditRequest(ctx, models.AuditActionRequestVote, request, voter, string(decision))
	if s.metrics != nil {
		s.metrics.ObserveVote(decision)
	}
	if event != "" {
		s.notify(ctx, event, request, operationType)
	}

	if request.Status == models.RequestStatusAdopted {
		if err := s.executor.ExecuteAdopted(ctx, request.ID); err != nil {
			s.logger.Error("adopted request execution failed to start",
				zap.String("request_id", request.ID.String()), zap.Error(err))
		}
		// Re-read: the executor advanced the status, possibly to a terminal one.
		if updated, found := s.requests.Get(request.ID); found {
			request = updated
		}
	}
	return request, nil
}

// Get returns the request, lazily expiring an overdue one before returning it.
func (s *RequestService) Get(ctx context.Context, caller string, requestID uuid.UUID) (*models.Request, error) {
	request, ok := s.requests.Get(requestID)
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	operationType, err := request.Operation.Type()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "stored operation is invalid")
	}
	if err := s.policies.Authorize(ctx, caller, operationType.Resource(), models.ActionRead); err != nil {
		return nil, err
	}
	if _, err := s.expireIfDue(request); err != nil {
		return nil, err
	}
	return request, nil
}

// List queries requests by filter. Overdue entries are reported as Expired in
// the result without being persisted; expiry is settled on individual access.
func (s *RequestService) List(ctx context.Context, caller string, filter models.RequestFilter) ([]*models.Request, error) {
	if err := s.policies.Authorize(ctx, caller, models.ResourceRequest, models.ActionRead); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > s.maxLimit {
		filter.Limit = s.maxLimit
	}
	requests := s.requests.FindByFilter(filter)
	now := s.now().UTC()
	for i, request := range requests {
		if request.ExpiredAt(now) {
			masked := *request
			masked.Status = models.RequestStatusExpired
			requests[i] = &masked
		}
	}
	return requests, nil
}

// expireIfDue persists the Expired transition when the validity window has
// passed. Returns whether the request is now expired.
func (s *RequestService) expireIfDue(request *models.Request) (bool, error) {
	if request.Status == models.RequestStatusExpired {
		return true, nil
	}
	if !request.ExpiredAt(s.now().UTC()) {
		return false, nil
	}
	request.Status = models.RequestStatusExpired
	if err := s.requests.Save(request); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to persist expiry")
	}
	operationType, _ := request.Operation.Type()
	s.auditRequest(context.Background(), models.AuditActionRequestExpire, request, request.Proposer, "ok")
	s.notify(context.Background(), models.RequestEventExpired, request, operationType)
	return true, nil
}

func (s *RequestService) notify(ctx context.Context, kind models.RequestEventKind, request *models.Request, operationType models.OperationType) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, models.RequestEvent{
		Kind:          kind,
		RequestID:     request.ID.String(),
		OperationType: operationType,
		Status:        request.Status,
		Proposer:      request.Proposer,
	})
}

func (s *RequestService) auditRequest(ctx context.Context, action string, request *models.Request, actor, outcome string) {
	if s.audit == nil {
		return
	}
	requestID := request.ID.String()
	details, _ := json.Marshal(map[string]interface{}{
		"status": request.Status,
		"votes":  len(request.Votes),
	})
	if err := s.audit.Create(ctx, &models.AuditLog{
		UserID:     &actor,
		Action:     action,
		Resource:   string(models.ResourceRequest),
		ResourceID: &requestID,
		Outcome:    outcome,
		Details:    details,
	}); err != nil {
		s.logger.Warn("failed to write audit entry",
			zap.String("request_id", requestID), zap.Error(err))
	}
}
