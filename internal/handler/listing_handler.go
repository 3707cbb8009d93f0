package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/service"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/response"
)

type listingService interface {
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, *models.Pagination, error)
	Create(ctx context.Context, actor models.Actor, req service.CreateListingRequest) (*models.Listing, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// ListingHandler serves project and hackathon listings.
type ListingHandler struct {
	service listingService
}

// NewListingHandler constructs a listing handler.
func NewListingHandler(svc listingService) *ListingHandler {
	return &ListingHandler{service: svc}
}

// List godoc
// @Summary List projects and hackathons
// @Tags Listings
// @Produce json
// @Param kind query string false "PROJECT or HACKATHON"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	filter := models.ListingFilter{Kind: models.ListingKind(strings.ToUpper(strings.TrimSpace(c.Query("kind"))))}
	var err error
	if filter.Page, err = queryInt(c, "page"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.PageSize, err = queryInt(c, "pageSize"); err != nil {
		response.Error(c, err)
		return
	}
	listings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listings, pagination)
}

// Create godoc
// @Summary Create listing
// @Tags Listings
// @Accept json
// @Produce json
// @Param payload body service.CreateListingRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Router /listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	var req service.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	listing, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, listing)
}

// Delete godoc
// @Summary Delete listing
// @Tags Listings
// @Param id path string true "Listing ID"
// @Success 204
// @Router /listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
