package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/middleware"
	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/response"
)

type subjectOptionService interface {
	SubjectOptions(ctx context.Context, scope models.SubjectScope) ([]models.SubjectOption, error)
}

// CatalogHandler serves the dropdown data of the search page.
type CatalogHandler struct {
	options subjectOptionService
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(options subjectOptionService) *CatalogHandler {
	return &CatalogHandler{options: options}
}

// Catalog godoc
// @Summary Facet option catalog
// @Description Branches, regulations, years, semesters, document types, units, file types and sort options.
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Catalog(c *gin.Context) {
	snapshot := catalog.Current()
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"version": snapshot.Version})
}

// SubjectOptions godoc
// @Summary Subject dropdown options
// @Description Subjects for the partially selected scope, ascending by code. A failing store yields an empty list with meta.degraded=true.
// @Tags Catalog
// @Produce json
// @Param regulation query string false "Regulation code"
// @Param year query int false "Year"
// @Param semester query int false "Semester"
// @Success 200 {object} response.Envelope
// @Router /filters/subjects [get]
func (h *CatalogHandler) SubjectOptions(c *gin.Context) {
	scope := models.SubjectScope{Regulation: strings.TrimSpace(c.Query("regulation"))}
	var err error
	if scope.Year, err = queryInt(c, "year"); err != nil {
		response.Error(c, err)
		return
	}
	if scope.Semester, err = queryInt(c, "semester"); err != nil {
		response.Error(c, err)
		return
	}

	options, err := h.options.SubjectOptions(c.Request.Context(), scope)
	if err != nil {
		middleware.SetMeta(c, "degraded", true)
		middleware.SetMeta(c, "errorCode", appErrors.FromError(err).Code)
	}
	if options == nil {
		options = []models.SubjectOption{}
	}
	response.JSON(c, http.StatusOK, options, nil, middleware.ExtractMeta(c))
}
