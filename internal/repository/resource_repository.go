package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/search"
)

const resourceColumns = "id, title, description, tags, regulation, year, semester, branch, subject_code, document_type, unit, file_type, mime_type, file_size, storage_key, url, file_name, uploaded_by, uploaded_at"

var facetColumns = map[string]string{
	search.FacetRegulation:   "regulation",
	search.FacetYear:         "year",
	search.FacetSemester:     "semester",
	search.FacetBranch:       "branch",
	search.FacetSubject:      "subject_code",
	search.FacetUnit:         "unit",
	search.FacetDocumentType: "document_type",
	search.FacetFileType:     "file_type",
}

var sortColumns = map[string]string{
	catalog.SortFieldUploadedAt: "uploaded_at",
	catalog.SortFieldTitle:      "title",
	catalog.SortFieldFileSize:   "file_size",
}

// ResourceRepository handles persistence for uploaded resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new repository instance.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Search counts the rows matching q and then fetches the requested window.
func (r *ResourceRepository) Search(ctx context.Context, q search.CompiledQuery) ([]models.ResourceRecord, int, error) {
	total, err := r.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.ResourceRecord{}, 0, nil
	}
	records, err := r.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Count returns the number of rows matching the predicates of q.
func (r *ResourceRepository) Count(ctx context.Context, q search.CompiledQuery) (int, error) {
	where, args, err := renderWhere(q.Predicates)
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM resources"+where, args...); err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	return total, nil
}

// Find returns the rows matching q in sort order. An unpaged query returns every match.
func (r *ResourceRepository) Find(ctx context.Context, q search.CompiledQuery) ([]models.ResourceRecord, error) {
	where, args, err := renderWhere(q.Predicates)
	if err != nil {
		return nil, err
	}

	sort := search.NormalizeSort(q.Sort)
	query := fmt.Sprintf("SELECT %s FROM resources%s ORDER BY %s %s", resourceColumns, where, sortColumns[sort.Field], strings.ToUpper(sort.Direction))
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset)
	}

	var records []models.ResourceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return records, nil
}

// FindByID returns a resource row by id.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.ResourceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = $1", resourceColumns)
	var record models.ResourceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create persists a resource row. uploaded_at is assigned by the database.
func (r *ResourceRepository) Create(ctx context.Context, record *models.ResourceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	const query = `INSERT INTO resources (id, title, description, tags, regulation, year, semester, branch, subject_code, document_type, unit, file_type, mime_type, file_size, storage_key, url, file_name, uploaded_by)
VALUES (:id, :title, :description, :tags, :regulation, :year, :semester, :branch, :subject_code, :document_type, :unit, :file_type, :mime_type, :file_size, :storage_key, :url, :file_name, :uploaded_by)
RETURNING uploaded_at`
	rows, err := r.db.NamedQueryContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&record.UploadedAt); err != nil {
			return fmt.Errorf("scan resource upload time: %w", err)
		}
	}
	return rows.Err()
}

// Delete removes a resource row and reports whether it existed.
func (r *ResourceRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete resource: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete resource rows affected: %w", err)
	}
	return affected > 0, nil
}

func renderWhere(predicates []search.Predicate) (string, []interface{}, error) {
	if len(predicates) == 0 {
		return "", nil, nil
	}
	conditions := make([]string, 0, len(predicates))
	args := make([]interface{}, 0, len(predicates))
	for _, p := range predicates {
		column, ok := facetColumns[p.Facet]
		if !ok {
			return "", nil, fmt.Errorf("unknown resource facet %q", p.Facet)
		}
		args = append(args, p.Value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}
