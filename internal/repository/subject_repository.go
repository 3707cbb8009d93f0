package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyhub-api/internal/models"
)

const subjectColumns = "id, code, name, regulation, year, semester, branch, units, textbooks, reference_books, created_at, updated_at"

// SubjectRepository handles persistence for curriculum subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Options returns code/name pairs for the subjects in scope ordered by code. Unset
// scope fields are not constrained.
func (r *SubjectRepository) Options(ctx context.Context, scope models.SubjectScope) ([]models.SubjectOption, error) {
	query := "SELECT code, name FROM subjects WHERE 1=1"
	var args []interface{}
	if scope.Regulation != "" {
		args = append(args, scope.Regulation)
		query += fmt.Sprintf(" AND regulation = $%d", len(args))
	}
	if scope.Year != 0 {
		args = append(args, scope.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if scope.Semester != 0 {
		args = append(args, scope.Semester)
		query += fmt.Sprintf(" AND semester = $%d", len(args))
	}
	query += " ORDER BY code ASC"

	options := []models.SubjectOption{}
	if err := r.db.SelectContext(ctx, &options, query, args...); err != nil {
		return nil, fmt.Errorf("list subject options: %w", err)
	}
	return options, nil
}

// List returns subjects matching filters with pagination metadata.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Regulation != "" {
		conditions = append(conditions, fmt.Sprintf("regulation = $%d", len(args)+1))
		args = append(args, filter.Regulation)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Branch != "" {
		conditions = append(conditions, fmt.Sprintf("branch = $%d", len(args)+1))
		args = append(args, filter.Branch)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY regulation DESC, year ASC, semester ASC, code ASC LIMIT %d OFFSET %d", subjectColumns, base, size, offset)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}
	for i := range subjects {
		if err := decodeUnits(&subjects[i]); err != nil {
			return nil, 0, err
		}
	}

	return subjects, total, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	if err := decodeUnits(&subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByIdentity checks whether another subject already uses code within the
// regulation, year and semester.
func (r *SubjectRepository) ExistsByIdentity(ctx context.Context, code, regulation string, year, semester int, excludeID string) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE UPPER(code) = UPPER($1) AND regulation = $2 AND year = $3 AND semester = $4"
	args := []interface{}{code, regulation, year, semester}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject identity: %w", err)
	}
	return true, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	if err := encodeUnits(subject); err != nil {
		return err
	}

	const query = `INSERT INTO subjects (id, code, name, regulation, year, semester, branch, units, textbooks, reference_books, created_at, updated_at) VALUES (:id, :code, :name, :regulation, :year, :semester, :branch, :units, :textbooks, :reference_books, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	if err := encodeUnits(subject); err != nil {
		return err
	}
	const query = `UPDATE subjects SET code = :code, name = :name, regulation = :regulation, year = :year, semester = :semester, branch = :branch, units = :units, textbooks = :textbooks, reference_books = :reference_books, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject record.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// CountResources returns the number of resources filed under the subject's code and scope.
func (r *SubjectRepository) CountResources(ctx context.Context, subject *models.Subject) (int, error) {
	const query = `SELECT COUNT(*) FROM resources WHERE regulation = $1 AND year = $2 AND semester = $3 AND subject_code = $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subject.Regulation, subject.Year, subject.Semester, subject.Code); err != nil {
		return 0, fmt.Errorf("count subject resources: %w", err)
	}
	return count, nil
}

func encodeUnits(subject *models.Subject) error {
	units := subject.Units
	if units == nil {
		units = map[string]models.Unit{}
	}
	raw, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("encode subject units: %w", err)
	}
	subject.UnitsJSON = raw
	return nil
}

func decodeUnits(subject *models.Subject) error {
	subject.Units = map[string]models.Unit{}
	if len(subject.UnitsJSON) == 0 {
		return nil
	}
	if err := subject.UnitsJSON.Unmarshal(&subject.Units); err != nil {
		return fmt.Errorf("decode units for subject %s: %w", subject.ID, err)
	}
	return nil
}
