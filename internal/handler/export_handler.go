package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wardenhq/warden/internal/dto"
	"github.com/wardenhq/warden/internal/service"
	appErrors "github.com/wardenhq/warden/pkg/errors"
	"github.com/wardenhq/warden/pkg/response"
)

// ExportHandler serves report generation and signed downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export requests as a report
// @Tags Reports
// @Produce json
// @Param format query string false "csv or pdf"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /reports/requests [post]
func (h *ExportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	format := service.ExportFormat(strings.ToLower(query.Format))
	if format == "" {
		format = service.ExportFormatCSV
	}
	result, err := h.service.ExportRequests(c.Request.Context(), claims.Identity, query.Filter(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a previously exported report
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /reports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	fileName, err := h.service.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	path, err := h.service.OpenReport(fileName)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, fileName)
}
