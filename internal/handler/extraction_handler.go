package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyhub-api/internal/service"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/response"
)

type syllabusExtractor interface {
	ExtractUnits(ctx context.Context, document []byte) (*service.SyllabusDraft, error)
}

// ExtractionHandler turns an uploaded syllabus PDF into draft units.
type ExtractionHandler struct {
	service  syllabusExtractor
	maxBytes int64
}

// NewExtractionHandler constructs an extraction handler accepting documents up to maxBytes.
func NewExtractionHandler(svc syllabusExtractor, maxBytes int64) *ExtractionHandler {
	return &ExtractionHandler{service: svc, maxBytes: maxBytes}
}

// Extract godoc
// @Summary Extract syllabus units
// @Description Reads a syllabus PDF and returns draft units, textbooks and references. Nothing is saved. Admin only.
// @Tags Subjects
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Syllabus PDF"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /subjects/extract [post]
func (h *ExtractionHandler) Extract(c *gin.Context) {
	limit := h.maxBytes + multipartOverhead
	if c.Request.ContentLength > limit {
		response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, "document exceeds the size limit"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

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

	document, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read uploaded file"))
		return
	}
	if int64(len(document)) > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, "document exceeds the size limit"))
		return
	}

	draft, err := h.service.ExtractUnits(c.Request.Context(), document)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}
