package intake

import (
	"path/filepath"
	"strings"

	"github.com/tu-admissions/intake-api/internal/models"
)

// Sanitize replaces every character outside [A-Za-z0-9_-] with an underscore.
// Derived Drive object names are built from untrusted form input and must
// stay within this safe set.
func Sanitize(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, raw)
}

// FolderName derives the per-student Drive folder name, e.g. "Smith_Jo_BA_US".
// Students sharing the same (last, first, degree, country) tuple share a
// folder; the schema carries no disambiguating student ID.
func FolderName(fields models.SubmissionFields) string {
	parts := []string{
		fields.Get(models.FieldLastName),
		fields.Get(models.FieldFirstName),
		fields.Get(models.FieldDegreeLevel),
		fields.Get(models.FieldNationalCountry),
	}
	for i, p := range parts {
		parts[i] = Sanitize(strings.TrimSpace(p))
	}
	return strings.Join(parts, "_")
}

// FileName derives the Drive object name for one document, combining the
// folder name, the document's issuing country, its short code and the
// original extension, e.g. "Smith_Jo_BA_US_ARM-T1.pdf".
func FileName(folderName string, file models.UploadedFile, fields models.SubmissionFields) string {
	country := Sanitize(strings.TrimSpace(fields.Get(models.CountryField(file.Field))))
	code := models.DocCode(file.Field)
	return folderName + "_" + country + "-" + code + sanitizeExt(file.Filename)
}

func sanitizeExt(filename string) string {
	ext := filepath.Ext(filename)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			return r
		}
		return -1
	}, ext)
}
