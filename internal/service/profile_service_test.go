package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

type mockProfileRepo struct {
	profiles map[string]models.Profile
	upserts  int
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &profile, nil
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *models.Profile) error {
	m.upserts++
	m.profiles[profile.UserID] = *profile
	return nil
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{
		Email:            "ravi@college.edu",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"},
	}
}

func TestProfileCreatedOnFirstRead(t *testing.T) {
	repo := &mockProfileRepo{profiles: map[string]models.Profile{}}
	svc := NewProfileService(repo, nil, nil)

	profile, err := svc.Get(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Equal(t, "user-7", profile.UserID)
	assert.Equal(t, "ravi", profile.DisplayName)
	assert.Equal(t, 1, repo.upserts)

	_, err = svc.Get(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.upserts)
}

func TestProfileUpdate(t *testing.T) {
	repo := &mockProfileRepo{profiles: map[string]models.Profile{}}
	svc := NewProfileService(repo, nil, nil)

	profile, err := svc.Update(context.Background(), studentClaims(), UpdateProfileRequest{
		DisplayName: " Ravi K ",
		Branch:      "ece",
		Regulation:  "r22",
		Year:        3,
		Semester:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", profile.DisplayName)
	assert.Equal(t, "ECE", repo.profiles["user-7"].Branch)
	assert.Equal(t, "R22", repo.profiles["user-7"].Regulation)

	_, err = svc.Update(context.Background(), studentClaims(), UpdateProfileRequest{DisplayName: "Ravi", Year: 6})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Update(context.Background(), studentClaims(), UpdateProfileRequest{DisplayName: "Ravi", Branch: "ARTS"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	cleared, err := svc.Update(context.Background(), studentClaims(), UpdateProfileRequest{DisplayName: "Ravi"})
	require.NoError(t, err)
	assert.Empty(t, cleared.Branch)
	assert.Zero(t, cleared.Year)
}
