package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyhub-api/internal/models"
)

// ProfileRepository persists user profiles keyed by identity provider subject.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new repository instance.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID returns the profile of userID or sql.ErrNoRows.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT user_id, email, display_name, branch, regulation, year, semester, created_at, updated_at FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert inserts the profile or overwrites the editable fields of an existing one.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	const query = `INSERT INTO profiles (user_id, email, display_name, branch, regulation, year, semester, created_at, updated_at)
VALUES (:user_id, :email, :display_name, :branch, :regulation, :year, :semester, :created_at, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, branch = EXCLUDED.branch,
regulation = EXCLUDED.regulation, year = EXCLUDED.year, semester = EXCLUDED.semester, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
