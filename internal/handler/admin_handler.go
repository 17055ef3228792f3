package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tu-admissions/intake-api/internal/dto"
	"github.com/tu-admissions/intake-api/internal/models"
	"github.com/tu-admissions/intake-api/internal/service"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
	"github.com/tu-admissions/intake-api/pkg/response"
)

type submissionQuerier interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionRecord, int, error)
}

type submissionExporter interface {
	Export(ctx context.Context, format string) (*service.ExportResult, error)
}

// AdminHandler serves the staff-facing submission views.
type AdminHandler struct {
	repo     submissionQuerier
	exporter submissionExporter
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(repo submissionQuerier, exporter submissionExporter) *AdminHandler {
	return &AdminHandler{repo: repo, exporter: exporter}
}

// List godoc
// @Summary List mirrored submissions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email search"
// @Param degreeLevel query string false "Degree level filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *AdminHandler) List(c *gin.Context) {
	if h.repo == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "submissions mirror is not enabled"))
		return
	}
	var q dto.SubmissionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid listing parameters"))
		return
	}

	filter := models.SubmissionFilter{
		Search:      q.Search,
		DegreeLevel: q.DegreeLevel,
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	records, total, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	response.JSON(c, http.StatusOK, records, &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
	})
}

// Export godoc
// @Summary Export mirrored submissions
// @Tags Admin
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /submissions/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "submissions mirror is not enabled"))
		return
	}
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export parameters"))
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), q.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.MimeType, result.Content)
}
