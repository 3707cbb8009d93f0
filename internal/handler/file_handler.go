package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/response"
	"github.com/noah-isme/studyhub-api/pkg/storage"
)

// signedFileStore is implemented by the local storage driver.
type signedFileStore interface {
	Resolve(token string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error)
}

// FileHandler streams locally stored resource files behind signed tokens.
type FileHandler struct {
	files signedFileStore
}

// NewFileHandler constructs a file handler.
func NewFileHandler(files signedFileStore) *FileHandler {
	return &FileHandler{files: files}
}

// Serve godoc
// @Summary Download a stored file
// @Description Serves a file through a signed token issued by the download endpoint.
// @Tags Resources
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	key, err := h.files.Resolve(c.Param("token"))
	if err != nil {
		msg := "invalid download link"
		if errors.Is(err, storage.ErrTokenExpired) {
			msg = "download link expired"
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, msg))
		return
	}

	body, info, err := h.files.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "file unavailable"))
		return
	}
	defer body.Close() //nolint:errcheck

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", path.Base(key)),
		"Cache-Control":       "private, max-age=300",
	})
}
