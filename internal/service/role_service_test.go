package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

type mockRoleRepo struct {
	grants  map[string]models.RoleGrant
	findErr error
}

func newMockRoleRepo(grants ...models.RoleGrant) *mockRoleRepo {
	repo := &mockRoleRepo{grants: map[string]models.RoleGrant{}}
	for _, g := range grants {
		repo.grants[g.Email] = g
	}
	return repo
}

func (m *mockRoleRepo) FindByEmail(ctx context.Context, email string) (*models.RoleGrant, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	grant, ok := m.grants[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &grant, nil
}

func (m *mockRoleRepo) List(ctx context.Context) ([]models.RoleGrant, error) {
	out := make([]models.RoleGrant, 0, len(m.grants))
	for _, g := range m.grants {
		out = append(out, g)
	}
	return out, nil
}

func (m *mockRoleRepo) Upsert(ctx context.Context, grant *models.RoleGrant) error {
	m.grants[grant.Email] = *grant
	return nil
}

func (m *mockRoleRepo) Delete(ctx context.Context, email string) (bool, error) {
	if _, ok := m.grants[email]; !ok {
		return false, nil
	}
	delete(m.grants, email)
	return true, nil
}

var adminActor = models.Actor{UserID: "u-admin", Email: "Admin@College.edu", Role: models.RoleAdmin}

func TestResolveRole(t *testing.T) {
	repo := newMockRoleRepo(models.RoleGrant{Email: "hod@college.edu", Role: models.RoleAdmin})
	svc := NewRoleService(repo, nil, nil, nil, []string{" Root@College.edu "})

	role, err := svc.ResolveRole(context.Background(), "root@college.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	role, err = svc.ResolveRole(context.Background(), "HOD@college.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	role, err = svc.ResolveRole(context.Background(), "someone@college.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, role)

	repo.findErr = errors.New("connection reset")
	_, err = svc.ResolveRole(context.Background(), "someone@college.edu")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStoreUnavailable))
}

func TestGrantRole(t *testing.T) {
	repo := newMockRoleRepo()
	audit := &stubAuditWriter{}
	svc := NewRoleService(repo, audit, nil, nil, nil)

	grant, err := svc.Grant(context.Background(), adminActor, GrantRoleRequest{Email: " TA@College.edu", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "ta@college.edu", grant.Email)
	assert.Equal(t, models.RoleAdmin, grant.Role)
	assert.Equal(t, "admin@college.edu", grant.GrantedBy)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRoleGrant, audit.logs[0].Action)

	_, err = svc.Grant(context.Background(), adminActor, GrantRoleRequest{Email: "not-an-email", Role: models.RoleAdmin})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Grant(context.Background(), adminActor, GrantRoleRequest{Email: "x@college.edu", Role: "OWNER"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Grant(context.Background(), adminActor, GrantRoleRequest{Email: "admin@college.edu", Role: models.RoleStudent})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
}

func TestRevokeRole(t *testing.T) {
	repo := newMockRoleRepo(
		models.RoleGrant{Email: "ta@college.edu", Role: models.RoleAdmin},
		models.RoleGrant{Email: "admin@college.edu", Role: models.RoleAdmin},
	)
	svc := NewRoleService(repo, nil, nil, nil, nil)

	err := svc.Revoke(context.Background(), adminActor, "ADMIN@college.edu")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
	assert.Contains(t, repo.grants, "admin@college.edu")

	require.NoError(t, svc.Revoke(context.Background(), adminActor, "TA@college.edu"))
	assert.NotContains(t, repo.grants, "ta@college.edu")

	err = svc.Revoke(context.Background(), adminActor, "ta@college.edu")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
