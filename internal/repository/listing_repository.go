package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyhub-api/internal/models"
)

const listingColumns = "id, kind, title, description, link, tags, starts_at, ends_at, created_by, created_at"

// ListingRepository persists project and hackathon listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository creates a new repository instance.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// List returns listings newest first with the total count.
func (r *ListingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, int, error) {
	base := "FROM listings WHERE 1=1"
	var args []interface{}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		base += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", listingColumns, base, size, (page-1)*size)
	listings := []models.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	return listings, total, nil
}

// FindByID returns a listing by id.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.GetContext(ctx, &listing, fmt.Sprintf("SELECT %s FROM listings WHERE id = $1", listingColumns), id); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Create persists a listing.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO listings (id, kind, title, description, link, tags, starts_at, ends_at, created_by, created_at) VALUES (:id, :kind, :title, :description, :link, :tags, :starts_at, :ends_at, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, listing); err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// Delete removes a listing record.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}
