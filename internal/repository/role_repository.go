package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyhub-api/internal/models"
)

// RoleRepository persists the role whitelist.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new repository instance.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByEmail returns the grant for email or sql.ErrNoRows.
func (r *RoleRepository) FindByEmail(ctx context.Context, email string) (*models.RoleGrant, error) {
	const query = `SELECT email, role, granted_by, created_at FROM role_grants WHERE email = $1`
	var grant models.RoleGrant
	if err := r.db.GetContext(ctx, &grant, query, strings.ToLower(email)); err != nil {
		return nil, err
	}
	return &grant, nil
}

// List returns every grant ordered by email.
func (r *RoleRepository) List(ctx context.Context) ([]models.RoleGrant, error) {
	grants := []models.RoleGrant{}
	if err := r.db.SelectContext(ctx, &grants, `SELECT email, role, granted_by, created_at FROM role_grants ORDER BY email ASC`); err != nil {
		return nil, fmt.Errorf("list role grants: %w", err)
	}
	return grants, nil
}

// Upsert creates or replaces the grant for the email address.
func (r *RoleRepository) Upsert(ctx context.Context, grant *models.RoleGrant) error {
	grant.Email = strings.ToLower(grant.Email)
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO role_grants (email, role, granted_by, created_at) VALUES (:email, :role, :granted_by, :created_at)
ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, granted_by = EXCLUDED.granted_by`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("upsert role grant: %w", err)
	}
	return nil
}

// Delete removes the grant and reports whether one existed.
func (r *RoleRepository) Delete(ctx context.Context, email string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM role_grants WHERE email = $1`, strings.ToLower(email))
	if err != nil {
		return false, fmt.Errorf("delete role grant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete role grant rows affected: %w", err)
	}
	return affected > 0, nil
}
