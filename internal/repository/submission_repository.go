package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/tu-admissions/intake-api/internal/models"
)

// SubmissionRepository manages the local submissions mirror table.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, first_name, middle_name, last_name, additional_name, student_type, degree_level, gender, birth_date, personal_email, notes, national_country, folder_name, folder_id, national_id_link, transcript1_link, transcript2_link, transcript3_link, transcript4_link, received_at`

// Insert stores one accepted submission.
func (r *SubmissionRepository) Insert(ctx context.Context, rec *models.SubmissionRecord) error {
	query := fmt.Sprintf(`INSERT INTO submissions (%s) VALUES (:id, :first_name, :middle_name, :last_name, :additional_name, :student_type, :degree_level, :gender, :birth_date, :personal_email, :notes, :national_country, :folder_name, :folder_id, :national_id_link, :transcript1_link, :transcript2_link, :transcript3_link, :transcript4_link, :received_at)`, submissionColumns)
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// List returns submissions matching the provided filters, newest first.
// A negative PageSize disables paging and returns every match.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionRecord, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(personal_email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.DegreeLevel != "" {
		conditions = append(conditions, fmt.Sprintf("degree_level = $%d", len(args)+1))
		args = append(args, filter.DegreeLevel)
	}

	where := strings.Join(conditions, " AND ")

	limitClause := ""
	if filter.PageSize >= 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		size := filter.PageSize
		if size == 0 || size > 100 {
			size = 20
		}
		limitClause = fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)
	}

	query := fmt.Sprintf("SELECT %s FROM submissions WHERE %s ORDER BY received_at DESC%s", submissionColumns, where, limitClause)

	var records []models.SubmissionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM submissions WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return records, total, nil
}
