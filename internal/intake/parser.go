package intake

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tu-admissions/intake-api/internal/models"
	"github.com/tu-admissions/intake-api/pkg/config"
	appErrors "github.com/tu-admissions/intake-api/pkg/errors"
	"github.com/tu-admissions/intake-api/pkg/storage"
)

// Parser decodes a multipart submission request into a field map and spooled
// file handles. It streams each declared file part to the spool without
// buffering it in memory; the caller owns the spool files it returns.
type Parser struct {
	spool        *storage.Spool
	maxFileSize  int64
	maxFieldSize int64
	logger       *zap.Logger
}

// NewParser constructs a Parser over the given spool.
func NewParser(spool *storage.Spool, cfg config.UploadsConfig, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxFile := cfg.MaxFileSize
	if maxFile <= 0 {
		maxFile = 25 * 1024 * 1024
	}
	maxField := cfg.MaxFieldSize
	if maxField <= 0 {
		maxField = 64 * 1024
	}
	return &Parser{spool: spool, maxFileSize: maxFile, maxFieldSize: maxField, logger: logger}
}

// Parse consumes the request body. File parts whose field name is not in the
// declared enumeration are drained and discarded so the stream is never left
// half-read; for a declared field only the first file is kept. On any failure
// every spool file written so far is removed before the error is returned.
func (p *Parser) Parse(r *http.Request) (*models.Submission, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "request is not valid multipart")
	}

	declared := make(map[string]struct{}, len(models.FileFields))
	for _, f := range models.FileFields {
		declared[f] = struct{}{}
	}

	sub := &models.Submission{Fields: models.SubmissionFields{}}
	seen := make(map[string]struct{})

	cleanup := func() {
		for _, f := range sub.Files {
			if err := p.spool.Remove(f.SpoolPath); err != nil {
				p.logger.Warn("failed to remove spool file", zap.String("path", f.SpoolPath), zap.Error(err))
			}
		}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cleanup()
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "malformed multipart stream")
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, err := p.readField(part)
			if err != nil {
				cleanup()
				return nil, err
			}
			if name != "" {
				sub.Fields[name] = value
			}
			continue
		}

		_, isDeclared := declared[name]
		_, isDuplicate := seen[name]
		if !isDeclared || isDuplicate {
			if err := drain(part); err != nil {
				cleanup()
				return nil, appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "malformed multipart stream")
			}
			continue
		}

		file, err := p.spoolFile(name, part)
		if err != nil {
			cleanup()
			return nil, err
		}
		if file == nil {
			// zero-byte part, treated as absent
			continue
		}
		seen[name] = struct{}{}
		sub.Files = append(sub.Files, *file)
	}

	return sub, nil
}

func (p *Parser) readField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, p.maxFieldSize+1))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "failed to read form field")
	}
	if int64(len(data)) > p.maxFieldSize {
		return "", appErrors.Validation(part.FormName(), "form field exceeds size limit")
	}
	return string(data), nil
}

func (p *Parser) spoolFile(field string, part *multipart.Part) (*models.UploadedFile, error) {
	pattern := spoolPattern(field, part.FileName())
	path, size, err := p.spool.Write(pattern, io.LimitReader(part, p.maxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "failed to spool uploaded file")
	}
	if size > p.maxFileSize {
		if rmErr := p.spool.Remove(path); rmErr != nil {
			p.logger.Warn("failed to remove oversized spool file", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, appErrors.Validation(field, "file exceeds size limit")
	}
	if size == 0 {
		if rmErr := p.spool.Remove(path); rmErr != nil {
			p.logger.Warn("failed to remove empty spool file", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, nil
	}
	return &models.UploadedFile{
		Field:       field,
		Filename:    filepath.Base(part.FileName()),
		ContentType: part.Header.Get("Content-Type"),
		SpoolPath:   path,
		Size:        size,
	}, nil
}

func drain(part *multipart.Part) error {
	_, err := io.Copy(io.Discard, part)
	return err
}

// spoolPattern builds a CreateTemp pattern like "transcript1-report-*.pdf"
// so spooled files stay recognizable while remaining collision-free.
func spoolPattern(field, filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, stem)
	if len(stem) > 40 {
		stem = stem[:40]
	}
	ext = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			return r
		}
		return -1
	}, ext)
	return field + "-" + stem + "-*" + ext
}
