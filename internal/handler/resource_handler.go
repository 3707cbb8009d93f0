package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/service"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/response"
)

// multipartOverhead is the allowance for form fields and boundaries on top of the file limit.
const multipartOverhead = 1 << 20

type resourceService interface {
	Upload(ctx context.Context, actor models.Actor, in service.UploadInput) (*models.Resource, error)
	Get(ctx context.Context, id string) (*models.Resource, error)
	DownloadURL(ctx context.Context, id string) (*models.ResourceDownload, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	MaxUploadBytes() int64
}

// ResourceHandler handles resource upload, retrieval and removal.
type ResourceHandler struct {
	service resourceService
}

// NewResourceHandler constructs a resource handler.
func NewResourceHandler(svc resourceService) *ResourceHandler {
	return &ResourceHandler{service: svc}
}

// Upload godoc
// @Summary Upload resource
// @Description Multipart upload of one document with its classification. Admin only.
// @Tags Resources
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param tags formData string false "Comma separated tags"
// @Param regulation formData string true "Regulation code"
// @Param year formData int true "Year"
// @Param semester formData int true "Semester"
// @Param branch formData string true "Branch code"
// @Param subjectCode formData string true "Subject code"
// @Param documentType formData string true "Document type"
// @Param unit formData string true "Unit (1-6 or all)"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /resources [post]
func (h *ResourceHandler) Upload(c *gin.Context) {
	limit := h.service.MaxUploadBytes() + multipartOverhead
	if c.Request.ContentLength > limit {
		response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, "upload exceeds the size limit"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var meta models.ResourceMetadata
	if err := c.ShouldBind(&meta); err != nil {
		response.Error(c, uploadBindError(err, "invalid upload form"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, uploadBindError(err, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	resource, err := h.service.Upload(c.Request.Context(), actorFromContext(c), service.UploadInput{
		Metadata: meta,
		FileName: header.Filename,
		Size:     header.Size,
		File:     file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// Get godoc
// @Summary Get resource
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	resource, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resource, nil)
}

// Download godoc
// @Summary Download resource
// @Description Redirects to a short lived link. Pass redirect=false to receive the link as JSON.
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Param redirect query bool false "Redirect to the file (default true)"
// @Success 200 {object} response.Envelope
// @Success 302
// @Router /resources/{id}/download [get]
func (h *ResourceHandler) Download(c *gin.Context) {
	download, err := h.service.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if redirect, err := strconv.ParseBool(c.DefaultQuery("redirect", "true")); err == nil && !redirect {
		response.JSON(c, http.StatusOK, download, nil)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, download.URL)
}

// Delete godoc
// @Summary Delete resource
// @Description Removes the record immediately; the stored file is deleted in the background. Admin only.
// @Tags Resources
// @Param id path string true "Resource ID"
// @Success 204
// @Router /resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func uploadBindError(err error, message string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, "upload exceeds the size limit")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
