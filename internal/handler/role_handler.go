package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/service"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/response"
)

type roleService interface {
	List(ctx context.Context) ([]models.RoleGrant, error)
	Grant(ctx context.Context, actor models.Actor, req service.GrantRoleRequest) (*models.RoleGrant, error)
	Revoke(ctx context.Context, actor models.Actor, email string) error
}

// RoleHandler manages the role whitelist.
type RoleHandler struct {
	service roleService
}

// NewRoleHandler constructs a role handler.
func NewRoleHandler(svc roleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// List godoc
// @Summary List role grants
// @Tags Roles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	grants, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grants, nil)
}

// Grant godoc
// @Summary Grant a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body service.GrantRoleRequest true "Grant payload"
// @Success 200 {object} response.Envelope
// @Router /roles [put]
func (h *RoleHandler) Grant(c *gin.Context) {
	var req service.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grant, err := h.service.Grant(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grant, nil)
}

// Revoke godoc
// @Summary Revoke a role grant
// @Description The caller cannot revoke their own grant.
// @Tags Roles
// @Param email path string true "Email address"
// @Success 204
// @Router /roles/{email} [delete]
func (h *RoleHandler) Revoke(c *gin.Context) {
	if err := h.service.Revoke(c.Request.Context(), actorFromContext(c), c.Param("email")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
