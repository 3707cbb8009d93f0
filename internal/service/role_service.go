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

type roleRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.RoleGrant, error)
	List(ctx context.Context) ([]models.RoleGrant, error)
	Upsert(ctx context.Context, grant *models.RoleGrant) error
	Delete(ctx context.Context, email string) (bool, error)
}

// GrantRoleRequest whitelists an email address for a role.
type GrantRoleRequest struct {
	Email string          `json:"email" validate:"required,email,max=254"`
	Role  models.UserRole `json:"role" validate:"required,oneof=ADMIN STUDENT"`
}

// RoleService manages the role whitelist and resolves caller roles.
type RoleService struct {
	repo      roleRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	bootstrap map[string]struct{}
}

// NewRoleService creates a role service. Emails in bootstrapAdmins always resolve to ADMIN.
func NewRoleService(repo roleRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger, bootstrapAdmins []string) *RoleService {
	if validate == nil {
		validate = catalog.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bootstrap := make(map[string]struct{}, len(bootstrapAdmins))
	for _, email := range bootstrapAdmins {
		if email = normalizeEmail(email); email != "" {
			bootstrap[email] = struct{}{}
		}
	}
	return &RoleService{repo: repo, audit: audit, validator: validate, logger: logger, bootstrap: bootstrap}
}

// ResolveRole returns the role of email: bootstrap admins first, then the whitelist,
// then STUDENT.
func (s *RoleService) ResolveRole(ctx context.Context, email string) (models.UserRole, error) {
	email = normalizeEmail(email)
	if _, ok := s.bootstrap[email]; ok {
		return models.RoleAdmin, nil
	}
	grant, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RoleStudent, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve role")
	}
	if !grant.Role.Valid() {
		s.logger.Warn("unknown role in whitelist", zap.String("email", email), zap.String("role", string(grant.Role)))
		return models.RoleStudent, nil
	}
	return grant.Role, nil
}

// List returns every whitelist entry.
func (s *RoleService) List(ctx context.Context) ([]models.RoleGrant, error) {
	grants, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return grants, nil
}

// Grant creates or replaces the whitelist entry of an email address.
func (s *RoleService) Grant(ctx context.Context, actor models.Actor, req GrantRoleRequest) (*models.RoleGrant, error) {
	req.Email = normalizeEmail(req.Email)
	req.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	if req.Email == normalizeEmail(actor.Email) && req.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot demote yourself")
	}

	grant := &models.RoleGrant{Email: req.Email, Role: req.Role, GrantedBy: normalizeEmail(actor.Email)}
	if err := s.repo.Upsert(ctx, grant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant role")
	}

	writeAudit(ctx, s.audit, s.logger, actor, models.AuditActionRoleGrant, "role_grant", grant.Email, nil, map[string]interface{}{
		"email": grant.Email,
		"role":  grant.Role,
	})
	return grant, nil
}

// Revoke removes the whitelist entry of email. Callers cannot revoke their own entry.
func (s *RoleService) Revoke(ctx context.Context, actor models.Actor, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	if email == normalizeEmail(actor.Email) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot revoke your own role")
	}

	deleted, err := s.repo.Delete(ctx, email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke role")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "role grant not found")
	}
	if _, ok := s.bootstrap[email]; ok {
		s.logger.Warn("revoked grant of a bootstrap admin; configuration still grants ADMIN", zap.String("email", email))
	}

	writeAudit(ctx, s.audit, s.logger, actor, models.AuditActionRoleRevoke, "role_grant", email, map[string]interface{}{"email": email}, nil)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
