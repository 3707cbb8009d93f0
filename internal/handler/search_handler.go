package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/middleware"
	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/response"
)

type resourceSearchService interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
}

// SearchHandler serves the faceted resource search.
type SearchHandler struct {
	service resourceSearchService
}

// NewSearchHandler constructs a search handler.
func NewSearchHandler(svc resourceSearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Search godoc
// @Summary Search resources
// @Description Faceted search. A failing store yields an empty page with meta.degraded=true.
// @Tags Resources
// @Produce json
// @Param q query string false "Free text query"
// @Param regulation query string false "Regulation code"
// @Param year query int false "Year"
// @Param semester query int false "Semester"
// @Param branch query string false "Branch code"
// @Param subjectCode query string false "Subject code"
// @Param unit query string false "Unit (1-6 or all)"
// @Param documentType query string false "Document type"
// @Param fileType query string false "File type"
// @Param sort query string false "Sort option, e.g. uploadedAt_desc"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param seq query string false "Client sequence number echoed in meta.seq"
// @Success 200 {object} response.Envelope
// @Router /resources/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	req, err := parseSearchRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if seq := c.Query("seq"); seq != "" {
		middleware.SetMeta(c, "seq", seq)
	}

	result, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.Status(499)
			return
		}
		middleware.SetMeta(c, "degraded", true)
		middleware.SetMeta(c, "errorCode", appErrors.FromError(err).Code)
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// parseSearchRequest reads the filter, sort and window from query parameters. Unknown
// sort options fall back to the default sort; malformed numbers are rejected.
func parseSearchRequest(c *gin.Context) (models.SearchRequest, error) {
	var req models.SearchRequest
	var err error

	req.Filter = models.ResourceFilter{
		Query:        strings.TrimSpace(c.Query("q")),
		Regulation:   strings.TrimSpace(c.Query("regulation")),
		Branch:       strings.TrimSpace(c.Query("branch")),
		SubjectCode:  strings.ToUpper(strings.TrimSpace(c.Query("subjectCode"))),
		DocumentType: strings.TrimSpace(c.Query("documentType")),
		Unit:         strings.TrimSpace(c.Query("unit")),
		FileType:     strings.TrimSpace(c.Query("fileType")),
	}
	if req.Filter.Year, err = queryInt(c, "year"); err != nil {
		return req, err
	}
	if req.Filter.Semester, err = queryInt(c, "semester"); err != nil {
		return req, err
	}
	if req.Page, err = queryInt(c, "page"); err != nil {
		return req, err
	}
	if req.PageSize, err = queryInt(c, "pageSize"); err != nil {
		return req, err
	}
	if field, direction, ok := catalog.ParseSortOption(c.Query("sort")); ok {
		req.Sort = models.SortSpec{Field: field, Direction: direction}
	}
	return req, nil
}
