package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-admissions/intake-api/internal/models"
	"github.com/tu-admissions/intake-api/internal/service"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
)

type querierMock struct {
	records []models.SubmissionRecord
	total   int
	filter  models.SubmissionFilter
	err     error
}

func (m *querierMock) List(_ context.Context, filter models.SubmissionFilter) ([]models.SubmissionRecord, int, error) {
	m.filter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.records, m.total, nil
}

type exporterMock struct {
	result *service.ExportResult
	format string
	err    error
}

func (m *exporterMock) Export(_ context.Context, format string) (*service.ExportResult, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestAdminHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &querierMock{
		records: []models.SubmissionRecord{{ID: "sub-1", FolderName: "Smith_Jo_BA_US", ReceivedAt: time.Now()}},
		total:   41,
	}
	h := NewAdminHandler(repo, nil)

	c, w := newGinContext(http.MethodGet, "/api/v1/submissions?search=smith&degreeLevel=BA&page=2&pageSize=10", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "smith", repo.filter.Search)
	assert.Equal(t, "BA", repo.filter.DegreeLevel)
	assert.Equal(t, 2, repo.filter.Page)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 41, envelope.Pagination.TotalCount)
	assert.Equal(t, 10, envelope.Pagination.PageSize)
}

func TestAdminHandlerListDefaultsPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &querierMock{total: 3}
	h := NewAdminHandler(repo, nil)

	c, w := newGinContext(http.MethodGet, "/api/v1/submissions", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.Page)
	assert.Equal(t, 20, envelope.Pagination.PageSize)
}

func TestAdminHandlerListWithoutMirror(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(nil, nil)

	c, w := newGinContext(http.MethodGet, "/api/v1/submissions", nil)
	h.List(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exporterMock{result: &service.ExportResult{
		Content:  []byte("Received,First Name\n"),
		Filename: "submissions-20260314-093000.csv",
		MimeType: "text/csv",
	}}
	h := NewAdminHandler(nil, exporter)

	c, w := newGinContext(http.MethodGet, "/api/v1/submissions/export?format=csv", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "submissions-20260314-093000.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Received,First Name\n", w.Body.String())
}

func TestAdminHandlerExportBadFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exporterMock{err: appErrors.Validation("format", "unsupported export format")}
	h := NewAdminHandler(nil, exporter)

	c, w := newGinContext(http.MethodGet, "/api/v1/submissions/export?format=xlsx", nil)
	h.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
