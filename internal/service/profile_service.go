package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

// UpdateProfileRequest holds the editable profile fields. Zero values clear a default.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Branch      string `json:"branch" validate:"omitempty,branch"`
	Regulation  string `json:"regulation" validate:"omitempty,regulation"`
	Year        int    `json:"year" validate:"omitempty,year"`
	Semester    int    `json:"semester" validate:"omitempty,semester"`
}

// ProfileService manages the academic defaults of signed in users.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = catalog.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger}
}

// Get returns the caller's profile, creating it on first access.
func (s *ProfileService) Get(ctx context.Context, claims *models.JWTClaims) (*models.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, claims.UserID())
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	profile = &models.Profile{
		UserID:      claims.UserID(),
		Email:       claims.Email,
		DisplayName: defaultDisplayName(claims),
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
	}
	s.logger.Info("profile created", zap.String("user_id", profile.UserID))
	return profile, nil
}

// Update replaces the editable fields of the caller's profile.
func (s *ProfileService) Update(ctx context.Context, claims *models.JWTClaims, req UpdateProfileRequest) (*models.Profile, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Branch = strings.ToUpper(strings.TrimSpace(req.Branch))
	req.Regulation = strings.ToUpper(strings.TrimSpace(req.Regulation))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile, err := s.Get(ctx, claims)
	if err != nil {
		return nil, err
	}
	profile.Email = claims.Email
	profile.DisplayName = req.DisplayName
	profile.Branch = req.Branch
	profile.Regulation = req.Regulation
	profile.Year = req.Year
	profile.Semester = req.Semester

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return profile, nil
}

func defaultDisplayName(claims *models.JWTClaims) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	if at := strings.Index(claims.Email, "@"); at > 0 {
		return claims.Email[:at]
	}
	return claims.Email
}
