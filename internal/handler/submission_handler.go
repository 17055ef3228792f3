package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tu-admissions/intake-api/internal/dto"
	"github.com/tu-admissions/intake-api/internal/models"
	"github.com/tu-admissions/intake-api/internal/service"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
	"github.com/tu-admissions/intake-api/pkg/response"
)

type multipartParser interface {
	Parse(r *http.Request) (*models.Submission, error)
}

type submissionSubmitter interface {
	Submit(ctx context.Context, sub *models.Submission) (*dto.SubmitResponse, error)
}

// SubmissionHandler exposes the application intake endpoint.
type SubmissionHandler struct {
	parser  multipartParser
	service submissionSubmitter
	metrics *service.MetricsService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(parser multipartParser, svc submissionSubmitter, metrics *service.MetricsService) *SubmissionHandler {
	return &SubmissionHandler{parser: parser, service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit a student application
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param firstName formData string true "First name"
// @Param lastName formData string true "Last name"
// @Param studentType formData string true "Student classification code"
// @Param degreeLevel formData string true "Degree level"
// @Param gender formData string true "Gender"
// @Param birthDate formData string true "Birth date"
// @Param personalEmail formData string true "Contact email"
// @Param nationalCountry formData string true "National ID issuing country"
// @Param t1Country formData string true "Transcript 1 issuing country"
// @Param termsConditions formData string true "Must be the literal true"
// @Param nationalID formData file true "National ID document"
// @Param transcript1 formData file true "First transcript"
// @Param transcript2 formData file false "Second transcript"
// @Param transcript3 formData file false "Third transcript"
// @Param transcript4 formData file false "Fourth transcript"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	if h.parser == nil || h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "submission service not configured"))
		return
	}

	sub, err := h.parser.Parse(c.Request)
	if err != nil {
		h.metrics.ObserveSubmission(service.OutcomeMalformed)
		response.Error(c, err)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), sub)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
