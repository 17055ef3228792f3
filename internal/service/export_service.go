package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tu-admissions/intake-api/internal/models"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
	"github.com/tu-admissions/intake-api/pkg/export"
)

type submissionLister interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionRecord, int, error)
}

// ExportResult bundles rendered export content.
type ExportResult struct {
	Content  []byte
	Filename string
	MimeType string
}

var exportHeaders = []string{
	"Received", "First Name", "Last Name", "Email", "Student Type",
	"Degree", "Country", "Folder", "National ID", "Transcript 1",
	"Transcript 2", "Transcript 3", "Transcript 4",
}

// ExportService renders the submissions mirror as CSV or PDF for staff.
type ExportService struct {
	repo   submissionLister
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(repo submissionLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Export renders every mirrored submission in the requested format.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportResult, error) {
	if s.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "submissions mirror is not enabled")
	}

	records, _, err := s.repo.List(ctx, models.SubmissionFilter{PageSize: -1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([][]string, 0, len(records))}
	for _, rec := range records {
		dataset.Rows = append(dataset.Rows, []string{
			rec.ReceivedAt.Format(time.RFC3339),
			rec.FirstName,
			rec.LastName,
			rec.PersonalEmail,
			rec.StudentType,
			rec.DegreeLevel,
			rec.NationalCountry,
			rec.FolderName,
			rec.NationalIDLink,
			rec.Transcript1Link,
			rec.Transcript2Link,
			rec.Transcript3Link,
			rec.Transcript4Link,
		})
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:  content,
			Filename: fmt.Sprintf("submissions-%s.csv", stamp),
			MimeType: "text/csv",
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Application Submissions")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:  content,
			Filename: fmt.Sprintf("submissions-%s.pdf", stamp),
			MimeType: "application/pdf",
		}, nil
	default:
		return nil, appErrors.Validation("format", "unsupported export format")
	}
}
