package intake

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-admissions/intake-api/internal/models"
	"github.com/tu-admissions/intake-api/pkg/config"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
	"github.com/tu-admissions/intake-api/pkg/storage"
)

func newTestParser(t *testing.T) (*Parser, string) {
	t.Helper()
	dir := t.TempDir()
	spool, err := storage.NewSpool(dir)
	require.NoError(t, err)
	return NewParser(spool, config.UploadsConfig{MaxFileSize: 1 << 20, MaxFieldSize: 1 << 10}, nil), dir
}

type formPart struct {
	field    string
	filename string
	content  string
}

func newMultipartRequest(t *testing.T, fields map[string]string, files []formPart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func spoolEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestParseFieldsAndFiles(t *testing.T) {
	parser, dir := newTestParser(t)
	body, contentType := newMultipartRequest(t,
		map[string]string{"firstName": "Jo", "lastName": "Smith", "unknownField": "kept"},
		[]formPart{
			{field: models.FileNationalID, filename: "passport.png", content: "id-bytes"},
			{field: models.FileTranscript1, filename: "grades.pdf", content: "transcript"},
		},
	)

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)

	sub, err := parser.Parse(req)
	require.NoError(t, err)

	assert.Equal(t, "Jo", sub.Fields.Get("firstName"))
	assert.Equal(t, "kept", sub.Fields.Get("unknownField"))

	require.Len(t, sub.Files, 2)
	assert.Equal(t, models.FileNationalID, sub.Files[0].Field)
	assert.Equal(t, "passport.png", sub.Files[0].Filename)
	assert.EqualValues(t, 8, sub.Files[0].Size)
	assert.Equal(t, 2, spoolEntries(t, dir))

	data, err := os.ReadFile(sub.Files[1].SpoolPath)
	require.NoError(t, err)
	assert.Equal(t, "transcript", string(data))
}

func TestParseDrainsUndeclaredFileFields(t *testing.T) {
	parser, dir := newTestParser(t)
	body, contentType := newMultipartRequest(t,
		map[string]string{"firstName": "Jo"},
		[]formPart{
			{field: "resume", filename: "resume.pdf", content: strings.Repeat("x", 4096)},
			{field: models.FileNationalID, filename: "id.png", content: "id"},
		},
	)

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)

	sub, err := parser.Parse(req)
	require.NoError(t, err)

	require.Len(t, sub.Files, 1)
	assert.Equal(t, models.FileNationalID, sub.Files[0].Field)
	assert.Equal(t, 1, spoolEntries(t, dir))
}

func TestParseKeepsFirstFilePerField(t *testing.T) {
	parser, dir := newTestParser(t)
	body, contentType := newMultipartRequest(t, nil, []formPart{
		{field: models.FileTranscript1, filename: "first.pdf", content: "first"},
		{field: models.FileTranscript1, filename: "second.pdf", content: "second"},
	})

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)

	sub, err := parser.Parse(req)
	require.NoError(t, err)

	require.Len(t, sub.Files, 1)
	assert.Equal(t, "first.pdf", sub.Files[0].Filename)
	assert.Equal(t, 1, spoolEntries(t, dir))
}

func TestParseSkipsEmptyFileParts(t *testing.T) {
	parser, dir := newTestParser(t)
	body, contentType := newMultipartRequest(t, nil, []formPart{
		{field: models.FileTranscript2, filename: "empty.pdf", content: ""},
	})

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)

	sub, err := parser.Parse(req)
	require.NoError(t, err)
	assert.Empty(t, sub.Files)
	assert.Equal(t, 0, spoolEntries(t, dir))
}

func TestParseRejectsNonMultipart(t *testing.T) {
	parser, _ := newTestParser(t)
	req := httptest.NewRequest("POST", "/api/v1/submissions", strings.NewReader(`{"firstName":"Jo"}`))
	req.Header.Set("Content-Type", "application/json")

	_, err := parser.Parse(req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedRequest.Code, appErrors.FromError(err).Code)
}

func TestParseTruncatedStreamCleansUpSpool(t *testing.T) {
	parser, dir := newTestParser(t)
	body, contentType := newMultipartRequest(t, nil, []formPart{
		{field: models.FileNationalID, filename: "id.png", content: "complete"},
		{field: models.FileTranscript1, filename: "t1.pdf", content: "will-be-cut"},
	})

	// cut the body mid-way through the second part
	truncated := body.Bytes()[:body.Len()-20]
	req := httptest.NewRequest("POST", "/api/v1/submissions", bytes.NewReader(truncated))
	req.Header.Set("Content-Type", contentType)

	_, err := parser.Parse(req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedRequest.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, spoolEntries(t, dir))
}

func TestParseRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	spool, err := storage.NewSpool(dir)
	require.NoError(t, err)
	parser := NewParser(spool, config.UploadsConfig{MaxFileSize: 16, MaxFieldSize: 1 << 10}, nil)

	body, contentType := newMultipartRequest(t, nil, []formPart{
		{field: models.FileNationalID, filename: "big.png", content: strings.Repeat("x", 64)},
	})

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)

	_, err = parser.Parse(req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, models.FileNationalID)
	assert.Equal(t, 0, spoolEntries(t, dir))
}
