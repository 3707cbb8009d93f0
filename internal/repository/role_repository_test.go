package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
)

func TestFindByEmailLowercasesLookup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM role_grants WHERE email = $1")).
		WithArgs("hod@college.edu").
		WillReturnRows(sqlmock.NewRows([]string{"email", "role", "granted_by", "created_at"}).
			AddRow("hod@college.edu", "ADMIN", "root@college.edu", time.Now()))

	grant, err := repo.FindByEmail(context.Background(), "HOD@College.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, grant.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailMissingGrant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectQuery("FROM role_grants").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "new@college.edu")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRoleDeleteReportsMissingGrant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM role_grants WHERE email = $1")).
		WithArgs("gone@college.edu").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "gone@college.edu")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRoleUpsertLowercasesEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectExec("INSERT INTO role_grants").WillReturnResult(sqlmock.NewResult(1, 1))

	grant := &models.RoleGrant{Email: "Staff@College.EDU", Role: models.RoleAdmin, GrantedBy: "root"}
	require.NoError(t, repo.Upsert(context.Background(), grant))
	assert.Equal(t, "staff@college.edu", grant.Email)
	assert.False(t, grant.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingListFiltersKind(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM listings WHERE 1=1 AND kind = $1")).
		WithArgs("HACKATHON").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM listings WHERE 1=1 AND kind = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("HACKATHON").
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "title", "description", "link", "tags", "starts_at", "ends_at", "created_by", "created_at"}).
			AddRow("l1", "HACKATHON", "Smart India", "", "https://sih.gov.in", "{ai}", nil, nil, "u1", time.Now()))

	listings, total, err := repo.List(context.Background(), models.ListingFilter{Kind: models.ListingHackathon})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, listings, 1)
	assert.Equal(t, models.ListingHackathon, listings[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))

	profile := &models.Profile{UserID: "u1", Email: "s@college.edu", Branch: "CSE", Regulation: "R23", Year: 1, Semester: 1}
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.False(t, profile.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionResourceUpload, Resource: "resource"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
