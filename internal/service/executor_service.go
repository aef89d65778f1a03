package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/gateway"
	"github.com/wardenhq/warden/internal/models"
	appErrors "github.com/wardenhq/warden/pkg/errors"
	"github.com/wardenhq/warden/pkg/jobs"
)

type executorRequestStore interface {
	Get(id uuid.UUID) (*models.Request, bool)
	Save(request *models.Request) error
}

type executorRegistry interface {
	SaveAccount(account models.Account) error
	GetAccount(id string) (*models.Account, bool)
	SaveUser(user models.WalletUser) error
	GetUser(id string) (*models.WalletUser, bool)
	SaveGroup(group models.UserGroup) error
	GetGroup(id string) (*models.UserGroup, bool)
	RemoveGroup(id string) bool
}

type policyInstaller interface {
	InstallAccessPolicy(policy models.AccessPolicy) error
	ReplaceAccessPolicy(id string, policy models.AccessPolicy) error
	DeleteAccessPolicy(id string) error
	InstallProposalPolicy(policy models.ProposalPolicy) error
	ReplaceProposalPolicy(id string, policy models.ProposalPolicy) error
	DeleteProposalPolicy(id string) error
}

// ExecutorConfig tunes the executor behaviour.
type ExecutorConfig struct {
	EngineIdentity string
	DetachUpgrades bool
}

// ExecutorService applies the concrete effect of an adopted request. The
// lifecycle manager hands each adopted request over exactly once; the executor
// performs the Adopted -> Executing transition, dispatches on the operation
// variant, and finalizes the request as Completed or Failed.
type ExecutorService struct {
	requests  executorRequestStore
	registry  executorRegistry
	policies  policyInstaller
	transfers gateway.TransferGateway
	units     gateway.UnitManager
	audit     auditLogger
	metrics   executionObserver
	notifier  requestNotifier
	logger    *zap.Logger
	config    ExecutorConfig

	upgradeQueue *jobs.Queue
}

type auditLogger interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type requestNotifier interface {
	Notify(ctx context.Context, event models.RequestEvent)
}

type executionObserver interface {
	ObserveExecution(operationType models.OperationType, outcome models.RequestStatus)
}

// NewExecutorService constructs the executor. When detached upgrades are
// enabled the caller must Start/Stop the returned service's queue.
func NewExecutorService(
	requests executorRequestStore,
	registry executorRegistry,
	policies policyInstaller,
	transfers gateway.TransferGateway,
	units gateway.UnitManager,
	audit auditLogger,
	metrics executionObserver,
	notifier requestNotifier,
	logger *zap.Logger,
	config ExecutorConfig,
) *ExecutorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExecutorService{
		requests:  requests,
		registry:  registry,
		policies:  policies,
		transfers: transfers,
		units:     units,
		audit:     audit,
		metrics:   metrics,
		notifier:  notifier,
		logger:    logger,
		config:    config,
	}
	if config.DetachUpgrades {
		s.upgradeQueue = jobs.NewQueue("upgrades", s.handleDetachedUpgrade, jobs.QueueConfig{
			Workers:    1,
			MaxRetries: 1,
			Logger:     logger,
		})
	}
	return s
}

// Start launches the detached upgrade worker when configured.
func (s *ExecutorService) Start(ctx context.Context) {
	if s.upgradeQueue != nil {
		s.upgradeQueue.Start(ctx)
	}
}

// Stop drains the detached upgrade worker.
func (s *ExecutorService) Stop() {
	if s.upgradeQueue != nil {
		s.upgradeQueue.Stop()
	}
}

// ExecuteAdopted transitions the request to Executing and applies its effect.
// Called exactly once per adopted request; any other status is an invariant
// violation.
func (s *ExecutorService) ExecuteAdopted(ctx context.Context, requestID uuid.UUID) error {
	request, ok := s.requests.Get(requestID)
	if !ok {
		return appErrors.ErrNotFound
	}
	if request.Status != models.RequestStatusAdopted {
		return appErrors.Clone(appErrors.ErrUnexpected, "request is not adopted")
	}

	request.Status = models.RequestStatusExecuting
	if err := s.requests.Save(request); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist executing transition")
	}

	operationType, err := request.Operation.Type()
	if err != nil {
		s.finalize(ctx, request, "", err)
		return nil
	}

	if operationType == models.OperationTypeUpgrade && s.upgradeQueue != nil {
		// Fire-and-forget: the caller observes Executing immediately and the
		// eventual outcome only through the persisted request and the logs.
		job := jobs.Job{RequestID: request.ID, Kind: "upgrade"}
		if err := s.upgradeQueue.Enqueue(job); err != nil {
			s.finalize(ctx, request, "", appErrors.Wrap(err, appErrors.ErrInternal.Code,
				appErrors.ErrInternal.Status, "failed to schedule detached upgrade"))
		}
		return nil
	}

	result, err := s.apply(ctx, request, operationType)
	s.finalize(ctx, request, result, err)
	return nil
}

func (s *ExecutorService) handleDetachedUpgrade(ctx context.Context, job jobs.Job) error {
	request, found := s.requests.Get(job.RequestID)
	if !found {
		return fmt.Errorf("request %s not found", job.RequestID)
	}
	result, err := s.apply(ctx, request, models.OperationTypeUpgrade)
	s.finalize(ctx, request, result, err)
	return nil
}

func (s *ExecutorService) apply(ctx context.Context, request *models.Request, operationType models.OperationType) (string, error) {
	// Low-level calls are made by the engine itself, never on behalf of the
	// request's proposer.
	ctx = WithEffectiveCaller(ctx, s.config.EngineIdentity)
	op := request.Operation
	switch operationType {
	case models.OperationTypeTransfer:
		return s.applyTransfer(ctx, op.Transfer)
	case models.OperationTypeAddAccount:
		return s.applyAddAccount(op.AddAccount)
	case models.OperationTypeEditAccount:
		return s.applyEditAccount(op.EditAccount)
	case models.OperationTypeAddUser:
		return s.applyAddUser(op.AddUser)
	case models.OperationTypeEditUser:
		return s.applyEditUser(op.EditUser)
	case models.OperationTypeAddUserGroup:
		group := models.UserGroup{ID: uuid.NewString(), Name: op.AddUserGroup.Name}
		if err := s.registry.SaveGroup(group); err != nil {
			return "", err
		}
		return group.ID, nil
	case models.OperationTypeEditUserGroup:
		group, ok := s.registry.GetGroup(op.EditUserGroup.GroupID)
		if !ok {
			return "", appErrors.Clone(appErrors.ErrNotFound, "user group not found")
		}
		group.Name = op.EditUserGroup.Name
		if err := s.registry.SaveGroup(*group); err != nil {
			return "", err
		}
		return group.ID, nil
	case models.OperationTypeRemoveUserGroup:
		if !s.registry.RemoveGroup(op.RemoveUserGroup.GroupID) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "user group not found")
		}
		return op.RemoveUserGroup.GroupID, nil
	case models.OperationTypeUpgrade:
		return s.applyUpgrade(ctx, op.Upgrade)
	case models.OperationTypeAddAccessPolicy:
		policy := op.AddAccessPolicy.Policy
		if policy.ID == "" {
			policy.ID = uuid.NewString()
		}
		return policy.ID, s.policies.InstallAccessPolicy(policy)
	case models.OperationTypeEditAccessPolicy:
		return op.EditAccessPolicy.PolicyID,
			s.policies.ReplaceAccessPolicy(op.EditAccessPolicy.PolicyID, op.EditAccessPolicy.Policy)
	case models.OperationTypeRemoveAccessPolicy:
		return op.RemoveAccessPolicy.PolicyID, s.policies.DeleteAccessPolicy(op.RemoveAccessPolicy.PolicyID)
	case models.OperationTypeAddProposalPolicy:
		policy := op.AddProposalPolicy.Policy
		if policy.ID == "" {
			policy.ID = uuid.NewString()
		}
		return policy.ID, s.policies.InstallProposalPolicy(policy)
	case models.OperationTypeEditProposalPolicy:
		return op.EditProposalPolicy.PolicyID,
			s.policies.ReplaceProposalPolicy(op.EditProposalPolicy.PolicyID, op.EditProposalPolicy.Policy)
	case models.OperationTypeRemoveProposalPolicy:
		return op.RemoveProposalPolicy.PolicyID, s.policies.DeleteProposalPolicy(op.RemoveProposalPolicy.PolicyID)
	default:
		return "", appErrors.Clone(appErrors.ErrUnexpected, fmt.Sprintf("no handler for operation %s", operationType))
	}
}

func (s *ExecutorService) applyTransfer(ctx context.Context, op *models.TransferOperation) (string, error) {
	if _, ok := s.registry.GetAccount(op.AccountID); !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	// Transfers only need the authorization stage around the primitive; no
	// stop/start is involved.
	if EffectiveCaller(ctx) != s.config.EngineIdentity {
		return "", appErrors.ErrUnauthorized
	}
	txRef, err := s.transfers.SubmitTransfer(ctx, op.AccountID, op.To, op.Amount, op.Fee, op.Metadata)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRemoteCallFailed.Code,
			appErrors.ErrRemoteCallFailed.Status, "transfer submission failed")
	}
	return txRef, nil
}

func (s *ExecutorService) applyAddAccount(op *models.AddAccountOperation) (string, error) {
	account := models.Account{
		ID:         uuid.NewString(),
		Name:       op.Name,
		Blockchain: op.Blockchain,
		Symbol:     op.Symbol,
		Owners:     append([]string(nil), op.Owners...),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.registry.SaveAccount(account); err != nil {
		return "", err
	}
	return account.ID, nil
}

func (s *ExecutorService) applyEditAccount(op *models.EditAccountOperation) (string, error) {
	account, ok := s.registry.GetAccount(op.AccountID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	if op.Name != nil {
		account.Name = *op.Name
	}
	if op.Owners != nil {
		account.Owners = append([]string(nil), (*op.Owners)...)
	}
	if err := s.registry.SaveAccount(*account); err != nil {
		return "", err
	}
	return account.ID, nil
}

func (s *ExecutorService) applyAddUser(op *models.AddUserOperation) (string, error) {
	user := models.WalletUser{
		ID:         uuid.NewString(),
		Name:       op.Name,
		Identities: append([]string(nil), op.Identities...),
		Groups:     append([]string(nil), op.Groups...),
		Status:     models.WalletUserActive,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.registry.SaveUser(user); err != nil {
		return "", err
	}
	return user.ID, nil
}

func (s *ExecutorService) applyEditUser(op *models.EditUserOperation) (string, error) {
	user, ok := s.registry.GetUser(op.UserID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "wallet user not found")
	}
	if op.Name != nil {
		user.Name = *op.Name
	}
	if op.Identities != nil {
		user.Identities = append([]string(nil), (*op.Identities)...)
	}
	if op.Groups != nil {
		user.Groups = append([]string(nil), (*op.Groups)...)
	}
	if err := s.registry.SaveUser(*user); err != nil {
		return "", err
	}
	return user.ID, nil
}

func (s *ExecutorService) applyUpgrade(ctx context.Context, op *models.UpgradeOperation) (string, error) {
	pipeline := BuildUpgradePipeline(s.units, s.config.EngineIdentity, "upgrade_unit", s.logger)
	err := pipeline.Apply(ctx, UpgradeParams{
		Target:   op.Target,
		Module:   op.Module,
		Arg:      op.Arg,
		Checksum: op.Checksum,
	})
	if err != nil {
		return "", err
	}
	return op.Target, nil
}

func (s *ExecutorService) finalize(ctx context.Context, request *models.Request, result string, execErr error) {
	operationType, _ := request.Operation.Type()

	outcome := "ok"
	event := models.RequestEventCompleted
	if execErr != nil {
		request.Status = models.RequestStatusFailed
		message := execErr.Error()
		request.ExecutionResult = &message
		outcome = appErrors.FromError(execErr).Code
		event = models.RequestEventFailed
	} else {
		request.Status = models.RequestStatusCompleted
		request.ExecutionResult = &result
	}

	if err := s.requests.Save(request); err != nil {
		s.logger.Error("failed to persist execution outcome",
			zap.String("request_id", request.ID.String()), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.ObserveExecution(operationType, request.Status)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, models.RequestEvent{
			Kind:          event,
			RequestID:     request.ID.String(),
			OperationType: operationType,
			Status:        request.Status,
			Proposer:      request.Proposer,
		})
	}
	if s.audit != nil {
		action := models.AuditActionRequestExecute
		if operationType == models.OperationTypeUpgrade {
			action = models.AuditActionUpgradeUnit
		}
		requestID := request.ID.String()
		details, _ := json.Marshal(map[string]interface{}{
			"operation_type": operationType,
			"result":         request.ExecutionResult,
		})
		if err := s.audit.Create(ctx, &models.AuditLog{
			Action:     action,
			Resource:   string(operationType.Resource()),
			ResourceID: &requestID,
			Outcome:    outcome,
			Details:    details,
		}); err != nil {
			s.logger.Warn("failed to write audit entry",
				zap.String("request_id", requestID), zap.Error(err))
		}
	}
}
