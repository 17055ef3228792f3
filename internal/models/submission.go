package models

import "time"

// Text field keys of the canonical application schema. The frontend form and
// the spreadsheet columns are kept in lockstep with this list.
const (
	FieldFirstName       = "firstName"
	FieldMiddleName      = "middleName"
	FieldLastName        = "lastName"
	FieldAdditionalName  = "additionalName"
	FieldStudentType     = "studentType"
	FieldDegreeLevel     = "degreeLevel"
	FieldGender          = "gender"
	FieldBirthDate       = "birthDate"
	FieldPersonalEmail   = "personalEmail"
	FieldNotes           = "notes"
	FieldNationalCountry = "nationalCountry"
	FieldT1Country       = "t1Country"
	FieldT2Country       = "t2Country"
	FieldT3Country       = "t3Country"
	FieldT4Country       = "t4Country"
	FieldTermsConditions = "termsConditions"
)

// File field keys. Each accepts at most one document per submission.
const (
	FileNationalID  = "nationalID"
	FileTranscript1 = "transcript1"
	FileTranscript2 = "transcript2"
	FileTranscript3 = "transcript3"
	FileTranscript4 = "transcript4"
)

// RequiredFields lists the text fields that must be present and non-empty,
// in validation order. Order matters: the first violation is reported.
var RequiredFields = []string{
	FieldFirstName,
	FieldLastName,
	FieldStudentType,
	FieldDegreeLevel,
	FieldGender,
	FieldBirthDate,
	FieldPersonalEmail,
	FieldNationalCountry,
	FieldT1Country,
}

// RequiredFiles lists the documents every application must include.
var RequiredFiles = []string{FileNationalID, FileTranscript1}

// FileFields enumerates every accepted document field in upload order.
var FileFields = []string{
	FileNationalID,
	FileTranscript1,
	FileTranscript2,
	FileTranscript3,
	FileTranscript4,
}

// DocCode returns the short document code used in derived Drive filenames.
func DocCode(field string) string {
	switch field {
	case FileNationalID:
		return "NID"
	case FileTranscript1:
		return "T1"
	case FileTranscript2:
		return "T2"
	case FileTranscript3:
		return "T3"
	case FileTranscript4:
		return "T4"
	}
	return ""
}

// CountryField returns the text field holding the issuing country for a
// document field.
func CountryField(field string) string {
	switch field {
	case FileNationalID:
		return FieldNationalCountry
	case FileTranscript1:
		return FieldT1Country
	case FileTranscript2:
		return FieldT2Country
	case FileTranscript3:
		return FieldT3Country
	case FileTranscript4:
		return FieldT4Country
	}
	return ""
}

// SubmissionFields maps form field names to raw values. Unknown keys are
// retained but never required.
type SubmissionFields map[string]string

// Get returns the value for key, or "" when absent.
func (f SubmissionFields) Get(key string) string {
	if f == nil {
		return ""
	}
	return f[key]
}

// UploadedFile is one received attachment, spooled to local disk. The
// orchestrator owns the spool file and deletes it before the request ends.
type UploadedFile struct {
	Field       string
	Filename    string
	ContentType string
	SpoolPath   string
	Size        int64
}

// Submission bundles one parsed multipart request.
type Submission struct {
	Fields SubmissionFields
	Files  []UploadedFile
}

// FileByField returns the uploaded file for a field, or nil.
func (s *Submission) FileByField(field string) *UploadedFile {
	for i := range s.Files {
		if s.Files[i].Field == field {
			return &s.Files[i]
		}
	}
	return nil
}

// SubmissionState tracks the forward-only progress of one orchestration run.
type SubmissionState string

const (
	StateReceived       SubmissionState = "RECEIVED"
	StateValidated      SubmissionState = "VALIDATED"
	StateFolderResolved SubmissionState = "FOLDER_RESOLVED"
	StateFilesUploaded  SubmissionState = "FILES_UPLOADED"
	StateRecorded       SubmissionState = "RECORDED"
	StateDone           SubmissionState = "DONE"
)

// SubmissionRecord mirrors one accepted submission in the local database for
// staff queries. The spreadsheet remains the recording system of record.
type SubmissionRecord struct {
	ID              string    `db:"id" json:"id"`
	FirstName       string    `db:"first_name" json:"first_name"`
	MiddleName      string    `db:"middle_name" json:"middle_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	AdditionalName  string    `db:"additional_name" json:"additional_name"`
	StudentType     string    `db:"student_type" json:"student_type"`
	DegreeLevel     string    `db:"degree_level" json:"degree_level"`
	Gender          string    `db:"gender" json:"gender"`
	BirthDate       string    `db:"birth_date" json:"birth_date"`
	PersonalEmail   string    `db:"personal_email" json:"personal_email"`
	Notes           string    `db:"notes" json:"notes"`
	NationalCountry string    `db:"national_country" json:"national_country"`
	FolderName      string    `db:"folder_name" json:"folder_name"`
	FolderID        string    `db:"folder_id" json:"folder_id"`
	NationalIDLink  string    `db:"national_id_link" json:"national_id_link"`
	Transcript1Link string    `db:"transcript1_link" json:"transcript1_link"`
	Transcript2Link string    `db:"transcript2_link" json:"transcript2_link"`
	Transcript3Link string    `db:"transcript3_link" json:"transcript3_link"`
	Transcript4Link string    `db:"transcript4_link" json:"transcript4_link"`
	ReceivedAt      time.Time `db:"received_at" json:"received_at"`
}

// SubmissionFilter encapsulates allowed search parameters for listing
// submission records.
type SubmissionFilter struct {
	Search      string
	DegreeLevel string
	Page        int
	PageSize    int
}

// Pagination describes list paging metadata in responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
