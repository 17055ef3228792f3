package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-admissions/intake-api/internal/models"
	"github.com/tu-admissions/intake-api/pkg/drive"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
	"github.com/tu-admissions/intake-api/pkg/storage"
)

type fileStoreStub struct {
	folders       map[string]string
	findCalls     int
	createCalls   int
	uploaded      []string
	uploadErrName string
	grantErr      error
	grantFailID   string
}

func newFileStoreStub() *fileStoreStub {
	return &fileStoreStub{folders: map[string]string{}}
}

func (s *fileStoreStub) FindFolder(ctx context.Context, name string) (string, error) {
	s.findCalls++
	return s.folders[name], nil
}

func (s *fileStoreStub) CreateFolder(ctx context.Context, name string) (string, error) {
	s.createCalls++
	id := fmt.Sprintf("folder-%d", len(s.folders)+1)
	s.folders[name] = id
	return id, nil
}

func (s *fileStoreStub) UploadFile(ctx context.Context, folderID, name, mimeType string, r io.Reader) (*drive.StoredFile, error) {
	if s.uploadErrName != "" && strings.Contains(name, s.uploadErrName) {
		return nil, fmt.Errorf("drive: quota exceeded")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	s.uploaded = append(s.uploaded, name)
	id := fmt.Sprintf("file-%d", len(s.uploaded))
	return &drive.StoredFile{ID: id, Link: "https://drive.google.com/file/d/" + id + "/view"}, nil
}

func (s *fileStoreStub) GrantLinkAccess(ctx context.Context, fileID string) error {
	if s.grantErr != nil && (s.grantFailID == "" || s.grantFailID == fileID) {
		return s.grantErr
	}
	return nil
}

type rowAppenderStub struct {
	rows [][]string
	err  error
}

func (s *rowAppenderStub) AppendRow(ctx context.Context, row []string) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}

type folderCacheStub struct {
	values map[string]string
	sets   int
}

func (s *folderCacheStub) Get(ctx context.Context, folderName string) (string, error) {
	return s.values[folderName], nil
}

func (s *folderCacheStub) Set(ctx context.Context, folderName, folderID string) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[folderName] = folderID
	s.sets++
	return nil
}

type recorderStub struct {
	records []*models.SubmissionRecord
	err     error
}

func (s *recorderStub) Insert(ctx context.Context, rec *models.SubmissionRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func validFields() models.SubmissionFields {
	return models.SubmissionFields{
		models.FieldFirstName:       "Jo",
		models.FieldLastName:        "Smith",
		models.FieldStudentType:     "MSOHQ",
		models.FieldDegreeLevel:     "BA",
		models.FieldGender:          "F",
		models.FieldBirthDate:       "1999-04-02",
		models.FieldPersonalEmail:   "jo.smith@example.com",
		models.FieldNationalCountry: "US",
		models.FieldT1Country:       "ARM",
		models.FieldTermsConditions: "true",
	}
}

type fixture struct {
	svc      *SubmissionService
	store    *fileStoreStub
	sheet    *rowAppenderStub
	spool    *storage.Spool
	recorder *recorderStub
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	spool, err := storage.NewSpool(dir)
	require.NoError(t, err)
	store := newFileStoreStub()
	sheet := &rowAppenderStub{}
	recorder := &recorderStub{}
	svc := NewSubmissionService(store, sheet, spool, nil, recorder, nil, nil, SubmissionServiceConfig{CallTimeout: time.Second})
	return &fixture{svc: svc, store: store, sheet: sheet, spool: spool, recorder: recorder, dir: dir}
}

func (f *fixture) addFile(t *testing.T, field, filename, content string) models.UploadedFile {
	t.Helper()
	path, size, err := f.spool.Write(field+"-*", strings.NewReader(content))
	require.NoError(t, err)
	return models.UploadedFile{
		Field:       field,
		Filename:    filename,
		ContentType: "application/pdf",
		SpoolPath:   path,
		Size:        size,
	}
}

func (f *fixture) spoolCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	return len(entries)
}

func TestSubmitSuccess(t *testing.T) {
	f := newFixture(t)
	sub := &models.Submission{Fields: validFields()}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "passport.png", "id-bytes"),
		f.addFile(t, models.FileTranscript1, "grades.pdf", "transcript-bytes"),
	)

	result, err := f.svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Success)
	assert.Equal(t, "Smith_Jo_BA_US", result.Folder)
	assert.Len(t, result.Links, 2)
	assert.Contains(t, result.Links, models.FileNationalID)
	assert.Contains(t, result.Links, models.FileTranscript1)

	require.Len(t, f.store.uploaded, 2)
	assert.Equal(t, "Smith_Jo_BA_US_US-NID.png", f.store.uploaded[0])
	assert.Equal(t, "Smith_Jo_BA_US_ARM-T1.pdf", f.store.uploaded[1])

	require.Len(t, f.sheet.rows, 1)
	assert.Len(t, f.sheet.rows[0], 22)
	assert.Equal(t, "Jo", f.sheet.rows[0][0])
	assert.Equal(t, result.Links[models.FileNationalID], f.sheet.rows[0][10])
	assert.Equal(t, "true", f.sheet.rows[0][20])

	assert.Equal(t, 0, f.spoolCount(t))
	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, "Smith_Jo_BA_US", f.recorder.records[0].FolderName)
}

func TestSubmitMissingFieldShortCircuits(t *testing.T) {
	for _, field := range models.RequiredFields {
		t.Run(field, func(t *testing.T) {
			f := newFixture(t)
			fields := validFields()
			fields[field] = "   "
			sub := &models.Submission{Fields: fields}
			sub.Files = append(sub.Files,
				f.addFile(t, models.FileNationalID, "id.png", "x"),
				f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
			)

			_, err := f.svc.Submit(context.Background(), sub)
			require.Error(t, err)

			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Contains(t, appErr.Message, field)

			assert.Zero(t, f.store.findCalls)
			assert.Zero(t, f.store.createCalls)
			assert.Empty(t, f.store.uploaded)
			assert.Empty(t, f.sheet.rows)
			assert.Equal(t, 0, f.spoolCount(t))
		})
	}
}

func TestSubmitFirstViolationWins(t *testing.T) {
	f := newFixture(t)
	fields := validFields()
	delete(fields, models.FieldFirstName)
	delete(fields, models.FieldGender)
	sub := &models.Submission{Fields: fields}

	_, err := f.svc.Submit(context.Background(), sub)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, models.FieldFirstName)
}

func TestSubmitMissingRequiredFile(t *testing.T) {
	f := newFixture(t)
	sub := &models.Submission{Fields: validFields()}
	sub.Files = append(sub.Files, f.addFile(t, models.FileNationalID, "id.png", "x"))

	_, err := f.svc.Submit(context.Background(), sub)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, models.FileTranscript1)

	assert.Zero(t, f.store.findCalls)
	assert.Empty(t, f.sheet.rows)
	assert.Equal(t, 0, f.spoolCount(t))
}

func TestSubmitUnacceptedTerms(t *testing.T) {
	f := newFixture(t)
	fields := validFields()
	fields[models.FieldTermsConditions] = "false"
	sub := &models.Submission{Fields: fields}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)

	_, err := f.svc.Submit(context.Background(), sub)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, appErr.Message, models.FieldTermsConditions)
	assert.Zero(t, f.store.findCalls)
	assert.Equal(t, 0, f.spoolCount(t))
}

func TestSubmitUploadFailureOnSecondFile(t *testing.T) {
	f := newFixture(t)
	f.store.uploadErrName = "-T1"
	sub := &models.Submission{Fields: validFields()}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)

	_, err := f.svc.Submit(context.Background(), sub)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)
	assert.Contains(t, appErr.Message, models.FileTranscript1)

	// the national ID upload is not rolled back
	require.Len(t, f.store.uploaded, 1)
	assert.Contains(t, f.store.uploaded[0], "-NID")

	assert.Empty(t, f.sheet.rows)
	assert.Equal(t, 0, f.spoolCount(t))
}

func TestSubmitGrantFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.store.grantErr = fmt.Errorf("drive: permission denied")
	sub := &models.Submission{Fields: validFields()}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)

	_, err := f.svc.Submit(context.Background(), sub)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, f.spoolCount(t))
}

func TestSubmitRecordingFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.sheet.err = fmt.Errorf("sheets: backend unavailable")
	sub := &models.Submission{Fields: validFields()}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)

	_, err := f.svc.Submit(context.Background(), sub)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRecording.Code, appErr.Code)
	assert.Equal(t, 500, appErr.Status)

	// documents were already uploaded when recording failed
	assert.Len(t, f.store.uploaded, 2)
	assert.Equal(t, 0, f.spoolCount(t))
	assert.Empty(t, f.recorder.records)
}

func TestSubmitFolderEnsureIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first := &models.Submission{Fields: validFields()}
	first.Files = append(first.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)
	_, err := f.svc.Submit(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, 1, f.store.createCalls)

	second := &models.Submission{Fields: validFields()}
	second.Files = append(second.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)
	_, err = f.svc.Submit(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.createCalls)
	assert.Len(t, f.store.folders, 1)
}

func TestSubmitUsesFolderCache(t *testing.T) {
	f := newFixture(t)
	cache := &folderCacheStub{values: map[string]string{"Smith_Jo_BA_US": "cached-folder"}}
	f.svc.cache = cache

	sub := &models.Submission{Fields: validFields()}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)

	_, err := f.svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.Zero(t, f.store.findCalls)
	assert.Zero(t, f.store.createCalls)
	assert.Equal(t, 0, cache.sets)
}

func TestSubmitMirrorFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = fmt.Errorf("pq: connection refused")

	sub := &models.Submission{Fields: validFields()}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)

	result, err := f.svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestSubmitSanitizesDerivedNames(t *testing.T) {
	f := newFixture(t)
	fields := validFields()
	fields[models.FieldLastName] = "O'Brien/Smith"
	fields[models.FieldFirstName] = "Jo Ann"

	sub := &models.Submission{Fields: fields}
	sub.Files = append(sub.Files,
		f.addFile(t, models.FileNationalID, "id.png", "x"),
		f.addFile(t, models.FileTranscript1, "t1.pdf", "y"),
	)

	result, err := f.svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, "O_Brien_Smith_Jo_Ann_BA_US", result.Folder)
	for _, name := range f.store.uploaded {
		stem := strings.TrimSuffix(strings.TrimSuffix(name, ".png"), ".pdf")
		for _, r := range stem {
			assert.True(t,
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-',
				"unexpected character %q in %s", r, name)
		}
	}
}
