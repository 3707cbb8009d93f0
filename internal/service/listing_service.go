package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

type listingRepository interface {
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, int, error)
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id string) error
}

// CreateListingRequest captures a new project or hackathon announcement.
type CreateListingRequest struct {
	Kind        models.ListingKind `json:"kind" validate:"required,oneof=PROJECT HACKATHON"`
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description" validate:"max=4000"`
	Link        string             `json:"link" validate:"omitempty,url,max=500"`
	Tags        []string           `json:"tags" validate:"max=10,dive,required,max=40"`
	StartsAt    *time.Time         `json:"starts_at"`
	EndsAt      *time.Time         `json:"ends_at"`
}

// ListingService manages project and hackathon listings.
type ListingService struct {
	repo      listingRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewListingService creates a listing service.
func NewListingService(repo listingRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *ListingService {
	if validate == nil {
		validate = catalog.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns listings newest first.
func (s *ListingService) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, *models.Pagination, error) {
	filter.Kind = models.ListingKind(strings.ToUpper(strings.TrimSpace(string(filter.Kind))))
	if filter.Kind != "" && filter.Kind != models.ListingProject && filter.Kind != models.ListingHackathon {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "kind must be PROJECT or HACKATHON")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	listings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list listings")
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
		HasMore:    filter.Page*filter.PageSize < total,
	}, nil
}

// Create publishes a listing.
func (s *ListingService) Create(ctx context.Context, actor models.Actor, req CreateListingRequest) (*models.Listing, error) {
	req.Kind = models.ListingKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Link = strings.TrimSpace(req.Link)
	req.Tags = trimNonEmpty(req.Tags)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ends_at must not precede starts_at")
	}

	listing := &models.Listing{
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Tags:        req.Tags,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}

	writeAudit(ctx, s.audit, s.logger, actor, models.AuditActionListingCreate, "listing", listing.ID, nil, map[string]interface{}{
		"kind":  listing.Kind,
		"title": listing.Title,
	})
	return listing, nil
}

// Delete removes a listing.
func (s *ListingService) Delete(ctx context.Context, actor models.Actor, id string) error {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete listing")
	}

	writeAudit(ctx, s.audit, s.logger, actor, models.AuditActionListingDelete, "listing", id, map[string]interface{}{
		"kind":  listing.Kind,
		"title": listing.Title,
	}, nil)
	return nil
}
