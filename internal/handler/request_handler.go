package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/dto"
	"github.com/wardenhq/warden/internal/models"
	appErrors "github.com/wardenhq/warden/pkg/errors"
	"github.com/wardenhq/warden/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, proposer string, operation models.Operation) (*models.Request, error)
	Vote(ctx context.Context, requestID uuid.UUID, voter string, decision models.VoteDecision) (*models.Request, error)
	Get(ctx context.Context, caller string, requestID uuid.UUID) (*models.Request, error)
	List(ctx context.Context, caller string, filter models.RequestFilter) ([]*models.Request, error)
}

type auditReader interface {
	ListByResource(ctx context.Context, resourceID string, limit int) ([]models.AuditLog, error)
}

// RequestHandler exposes REST endpoints for the request lifecycle.
type RequestHandler struct {
	service requestService
	audit   auditReader
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(service requestService, audit auditReader) *RequestHandler {
	return &RequestHandler{service: service, audit: audit}
}

// Create godoc
// @Summary Submit a governance request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Create(c.Request.Context(), claims.Identity, req.Operation)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dto.NewRequestResponse(request), nil)
}

// List godoc
// @Summary List governance requests
// @Tags Requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param account_id query string false "Account id"
// @Param proposer query string false "Proposer identity"
// @Param voter query string false "Voter identity"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.RequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	requests, err := h.service.List(c.Request.Context(), claims.Identity, query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewRequestResponses(requests), nil)
}

// Get godoc
// @Summary Get request detail
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	request, err := h.service.Get(c.Request.Context(), claims.Identity, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewRequestResponse(request), nil)
}

// Vote godoc
// @Summary Vote on a governance request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.VoteRequest true "Vote decision"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/votes [post]
func (h *RequestHandler) Vote(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid vote payload"))
		return
	}
	if req.Decision != models.VoteDecisionApprove && req.Decision != models.VoteDecisionReject {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVE or REJECT"))
		return
	}
	request, err := h.service.Vote(c.Request.Context(), requestID, claims.Identity, req.Decision)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewRequestResponse(request), nil)
}

// AuditTrail godoc
// @Summary List audit entries for a request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/audit [get]
func (h *RequestHandler) AuditTrail(c *gin.Context) {
	if h.audit == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "audit trail not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	logs, err := h.audit.ListByResource(c.Request.Context(), requestID.String(), 100)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to load audit trail"))
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
