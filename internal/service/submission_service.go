package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tu-admissions/intake-api/internal/dto"
	"github.com/tu-admissions/intake-api/internal/intake"
	"github.com/tu-admissions/intake-api/internal/models"
	"github.com/tu-admissions/intake-api/pkg/drive"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
)

type fileStore interface {
	FindFolder(ctx context.Context, name string) (string, error)
	CreateFolder(ctx context.Context, name string) (string, error)
	UploadFile(ctx context.Context, folderID, name, mimeType string, r io.Reader) (*drive.StoredFile, error)
	GrantLinkAccess(ctx context.Context, fileID string) error
}

type rowAppender interface {
	AppendRow(ctx context.Context, row []string) error
}

type fileSpool interface {
	Open(path string) (*os.File, error)
	Remove(path string) error
}

type folderCache interface {
	Get(ctx context.Context, folderName string) (string, error)
	Set(ctx context.Context, folderName, folderID string) error
}

type submissionRecorder interface {
	Insert(ctx context.Context, rec *models.SubmissionRecord) error
}

// SubmissionServiceConfig tunes external call handling.
type SubmissionServiceConfig struct {
	// CallTimeout bounds each individual Drive and Sheets call. Expired
	// calls fail the submission; there are no retries.
	CallTimeout time.Duration
}

// SubmissionService drives one application submission end to end: ordered
// validation, name derivation, folder ensure, per-document upload with
// link-permission grant, spreadsheet append and unconditional spool cleanup.
type SubmissionService struct {
	store    fileStore
	sheet    rowAppender
	spool    fileSpool
	cache    folderCache
	recorder submissionRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      SubmissionServiceConfig
	now      func() time.Time
}

// NewSubmissionService constructs the orchestrator. cache, recorder and
// metrics may be nil; the pipeline degrades gracefully without them.
func NewSubmissionService(store fileStore, sheet rowAppender, spool fileSpool, cache folderCache, recorder submissionRecorder, metrics *MetricsService, logger *zap.Logger, cfg SubmissionServiceConfig) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &SubmissionService{
		store:    store,
		sheet:    sheet,
		spool:    spool,
		cache:    cache,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Submit processes one parsed submission. Every spool file the parser
// materialized is deleted before Submit returns, on success and on every
// failure path alike. The state machine is strictly forward-moving:
// Received -> Validated -> FolderResolved -> FilesUploaded -> Recorded -> Done.
func (s *SubmissionService) Submit(ctx context.Context, sub *models.Submission) (*dto.SubmitResponse, error) {
	state := models.StateReceived
	defer s.releaseSpool(sub)

	if err := s.validate(sub); err != nil {
		s.metrics.ObserveSubmission(OutcomeValidationFailed)
		s.logger.Info("submission rejected",
			zap.String("state", string(state)),
			zap.String("reason", err.Error()))
		return nil, err
	}
	state = models.StateValidated

	folderName := intake.FolderName(sub.Fields)
	folderID, err := s.ensureFolder(ctx, folderName)
	if err != nil {
		s.metrics.ObserveSubmission(OutcomeStorageFailed)
		s.logger.Error("folder resolution failed",
			zap.String("state", string(state)),
			zap.String("folder", folderName),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to prepare storage folder")
	}
	state = models.StateFolderResolved

	links := make(map[string]string, len(sub.Files))
	for _, field := range models.FileFields {
		file := sub.FileByField(field)
		if file == nil {
			continue
		}
		link, err := s.uploadDocument(ctx, folderID, folderName, *file, sub.Fields)
		if err != nil {
			// Already-uploaded siblings stay in Drive; a resubmission
			// may leave partial duplicates in the student folder.
			s.metrics.ObserveSubmission(OutcomeStorageFailed)
			s.logger.Error("document upload failed",
				zap.String("state", string(state)),
				zap.String("folder", folderName),
				zap.String("field", field),
				zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, fmt.Sprintf("failed to store document: %s", field))
		}
		links[field] = link
		s.metrics.AddUploadBytes(file.Size)
	}
	state = models.StateFilesUploaded

	receivedAt := s.now().UTC()
	if err := s.appendRow(ctx, sub.Fields, links, receivedAt); err != nil {
		// Documents are already durably stored; recording failure is
		// still fatal for the submission as a whole.
		s.metrics.ObserveSubmission(OutcomeRecordingFailed)
		s.logger.Error("sheet append failed",
			zap.String("state", string(state)),
			zap.String("folder", folderName),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRecording.Code, appErrors.ErrRecording.Status, appErrors.ErrRecording.Message)
	}
	state = models.StateRecorded

	s.mirror(ctx, sub.Fields, folderName, folderID, links, receivedAt)

	state = models.StateDone
	s.metrics.ObserveSubmission(OutcomeAccepted)
	s.logger.Info("submission accepted",
		zap.String("state", string(state)),
		zap.String("folder", folderName),
		zap.Int("documents", len(links)))

	return &dto.SubmitResponse{Success: true, Folder: folderName, Links: links}, nil
}

// validate applies the fixed schema fail-fast; the first violation wins so
// error messages stay deterministic. Order: required text fields, required
// files, then the terms checkbox.
func (s *SubmissionService) validate(sub *models.Submission) error {
	for _, field := range models.RequiredFields {
		if strings.TrimSpace(sub.Fields.Get(field)) == "" {
			return appErrors.Validation(field, "missing required field")
		}
	}
	for _, field := range models.RequiredFiles {
		if sub.FileByField(field) == nil {
			return appErrors.Validation(field, "missing required file")
		}
	}
	if sub.Fields.Get(models.FieldTermsConditions) != "true" {
		return appErrors.Validation(models.FieldTermsConditions, "terms and conditions must be accepted")
	}
	return nil
}

// ensureFolder resolves the student folder with find-or-create semantics.
// Two racing submissions may both create a folder; at-least-one is accepted.
func (s *SubmissionService) ensureFolder(ctx context.Context, name string) (string, error) {
	if s.cache != nil {
		id, err := s.cache.Get(ctx, name)
		if err != nil {
			s.logger.Warn("folder cache lookup failed", zap.Error(err))
		}
		s.metrics.RecordFolderCache(err == nil && id != "")
		if err == nil && id != "" {
			return id, nil
		}
	}

	id, err := s.findFolder(ctx, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		id, err = s.createFolder(ctx, name)
		if err != nil {
			return "", err
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, name, id); err != nil {
			s.logger.Warn("folder cache store failed", zap.Error(err))
		}
	}
	return id, nil
}

func (s *SubmissionService) findFolder(ctx context.Context, name string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	start := time.Now()
	id, err := s.store.FindFolder(callCtx, name)
	s.metrics.ObserveExternalCall("drive_find_folder", time.Since(start), err)
	return id, err
}

func (s *SubmissionService) createFolder(ctx context.Context, name string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	start := time.Now()
	id, err := s.store.CreateFolder(callCtx, name)
	s.metrics.ObserveExternalCall("drive_create_folder", time.Since(start), err)
	return id, err
}

func (s *SubmissionService) uploadDocument(ctx context.Context, folderID, folderName string, file models.UploadedFile, fields models.SubmissionFields) (string, error) {
	src, err := s.spool.Open(file.SpoolPath)
	if err != nil {
		return "", err
	}
	defer src.Close() //nolint:errcheck

	name := intake.FileName(folderName, file, fields)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	start := time.Now()
	stored, err := s.store.UploadFile(callCtx, folderID, name, file.ContentType, src)
	s.metrics.ObserveExternalCall("drive_upload_file", time.Since(start), err)
	if err != nil {
		return "", err
	}

	grantCtx, grantCancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer grantCancel()
	start = time.Now()
	err = s.store.GrantLinkAccess(grantCtx, stored.ID)
	s.metrics.ObserveExternalCall("drive_grant_permission", time.Since(start), err)
	if err != nil {
		return "", err
	}
	return stored.Link, nil
}

// appendRow writes the fixed 22-column row: applicant fields interleaved with
// per-document links and countries, the terms flag and the receipt timestamp.
func (s *SubmissionService) appendRow(ctx context.Context, fields models.SubmissionFields, links map[string]string, receivedAt time.Time) error {
	row := []string{
		fields.Get(models.FieldFirstName),
		fields.Get(models.FieldMiddleName),
		fields.Get(models.FieldLastName),
		fields.Get(models.FieldAdditionalName),
		fields.Get(models.FieldStudentType),
		fields.Get(models.FieldDegreeLevel),
		fields.Get(models.FieldGender),
		fields.Get(models.FieldBirthDate),
		fields.Get(models.FieldPersonalEmail),
		fields.Get(models.FieldNotes),
		links[models.FileNationalID],
		fields.Get(models.FieldNationalCountry),
		links[models.FileTranscript1],
		fields.Get(models.FieldT1Country),
		links[models.FileTranscript2],
		fields.Get(models.FieldT2Country),
		links[models.FileTranscript3],
		fields.Get(models.FieldT3Country),
		links[models.FileTranscript4],
		fields.Get(models.FieldT4Country),
		fields.Get(models.FieldTermsConditions),
		receivedAt.Format(time.RFC3339),
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	start := time.Now()
	err := s.sheet.AppendRow(callCtx, row)
	s.metrics.ObserveExternalCall("sheets_append_row", time.Since(start), err)
	return err
}

// mirror inserts the submission into the local database for staff queries.
// Failures are logged and swallowed; the spreadsheet row already exists.
func (s *SubmissionService) mirror(ctx context.Context, fields models.SubmissionFields, folderName, folderID string, links map[string]string, receivedAt time.Time) {
	if s.recorder == nil {
		return
	}
	rec := &models.SubmissionRecord{
		ID:              uuid.NewString(),
		FirstName:       fields.Get(models.FieldFirstName),
		MiddleName:      fields.Get(models.FieldMiddleName),
		LastName:        fields.Get(models.FieldLastName),
		AdditionalName:  fields.Get(models.FieldAdditionalName),
		StudentType:     fields.Get(models.FieldStudentType),
		DegreeLevel:     fields.Get(models.FieldDegreeLevel),
		Gender:          fields.Get(models.FieldGender),
		BirthDate:       fields.Get(models.FieldBirthDate),
		PersonalEmail:   fields.Get(models.FieldPersonalEmail),
		Notes:           fields.Get(models.FieldNotes),
		NationalCountry: fields.Get(models.FieldNationalCountry),
		FolderName:      folderName,
		FolderID:        folderID,
		NationalIDLink:  links[models.FileNationalID],
		Transcript1Link: links[models.FileTranscript1],
		Transcript2Link: links[models.FileTranscript2],
		Transcript3Link: links[models.FileTranscript3],
		Transcript4Link: links[models.FileTranscript4],
		ReceivedAt:      receivedAt,
	}
	if err := s.recorder.Insert(ctx, rec); err != nil {
		s.logger.Warn("submissions mirror insert failed", zap.Error(err))
	}
}

// releaseSpool deletes every spool file of the request. Runs on every exit
// path of Submit.
func (s *SubmissionService) releaseSpool(sub *models.Submission) {
	for _, file := range sub.Files {
		if err := s.spool.Remove(file.SpoolPath); err != nil {
			s.logger.Warn("failed to remove spool file",
				zap.String("path", file.SpoolPath),
				zap.Error(err))
		}
	}
}
