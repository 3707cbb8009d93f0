package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/search"
)

var resourceRowColumns = []string{"id", "title", "description", "tags", "regulation", "year", "semester", "branch", "subject_code", "document_type", "unit", "file_type", "mime_type", "file_size", "storage_key", "url", "file_name", "uploaded_by", "uploaded_at"}

func TestResourceSearchCountsThenSelects(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	q := search.Compile(models.ResourceFilter{Semester: 1, Regulation: "R23", Year: 2}, search.DefaultSort(), 1, 50)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resources WHERE regulation = $1 AND year = $2 AND semester = $3")).
		WithArgs("R23", 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	now := time.Now()
	rows := sqlmock.NewRows(resourceRowColumns).
		AddRow("r2", "Trees", nil, nil, "R23", 2, 1, "CSE", "CS201", "Notes", nil, nil, nil, nil, "k2", nil, nil, nil, now).
		AddRow("r1", "Graphs", "desc", "{dsa,exam}", "R23", 2, 1, "CSE", "CS201", "Notes", "2", "PDF", "application/pdf", 1024, "k1", nil, "g.pdf", "u1", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM resources WHERE regulation = $1 AND year = $2 AND semester = $3 ORDER BY uploaded_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("R23", 2, 1).
		WillReturnRows(rows)

	records, total, err := repo.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, records, 2)
	assert.Nil(t, records[0].FileType)
	assert.Equal(t, pq.StringArray{"dsa", "exam"}, records[1].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceSearchSkipsSelectWhenNothingMatches(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resources")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	records, total, err := repo.Search(context.Background(), search.Compile(models.ResourceFilter{}, models.SortSpec{}, 1, 50))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceFindUnpagedSortsByTitle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	q := search.Compile(models.ResourceFilter{Branch: "IT", FileType: "PPT"}, models.SortSpec{Field: "title", Direction: "asc"}, 4, 10).Unpaged()

	mock.ExpectQuery(regexp.QuoteMeta("FROM resources WHERE branch = $1 AND file_type = $2 ORDER BY title ASC")).
		WithArgs("IT", "PPT").
		WillReturnRows(sqlmock.NewRows(resourceRowColumns))

	records, err := repo.Find(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCountError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection refused"))

	_, _, err := repo.Search(context.Background(), search.Compile(models.ResourceFilter{}, models.SortSpec{}, 1, 50))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count resources")
}

func TestRenderWhereRejectsUnknownFacet(t *testing.T) {
	_, _, err := renderWhere([]search.Predicate{{Facet: "downloads", Value: 1}})
	assert.Error(t, err)
}

func TestResourceCreateReturnsUploadTime(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	uploaded := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO resources").
		WillReturnRows(sqlmock.NewRows([]string{"uploaded_at"}).AddRow(uploaded))

	record := &models.ResourceRecord{Title: "Lab 1", Regulation: "R23", Year: 1, Semester: 1, Branch: "CSE", SubjectCode: "CS101", DocumentType: "Lab Manual", StorageKey: "k"}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, uploaded, record.UploadedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
