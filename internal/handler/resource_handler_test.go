package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/middleware"
	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/service"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

type resourceServiceStub struct {
	maxBytes    int64
	uploadErr   error
	lastInput   service.UploadInput
	lastContent string
	lastActor   models.Actor
	uploaded    bool
	download    *models.ResourceDownload
	deleteErr   error
	deletedID   string
}

func (s *resourceServiceStub) Upload(ctx context.Context, actor models.Actor, in service.UploadInput) (*models.Resource, error) {
	s.uploaded = true
	s.lastActor = actor
	s.lastInput = in
	data, _ := io.ReadAll(in.File)
	s.lastContent = string(data)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &models.Resource{ID: "res-1", Title: in.Metadata.Title}, nil
}

func (s *resourceServiceStub) Get(ctx context.Context, id string) (*models.Resource, error) {
	if id != "res-1" {
		return nil, appErrors.ErrNotFound
	}
	return &models.Resource{ID: id}, nil
}

func (s *resourceServiceStub) DownloadURL(ctx context.Context, id string) (*models.ResourceDownload, error) {
	if s.download == nil {
		return nil, appErrors.ErrNotFound
	}
	return s.download, nil
}

func (s *resourceServiceStub) Delete(ctx context.Context, actor models.Actor, id string) error {
	s.deletedID = id
	return s.deleteErr
}

func (s *resourceServiceStub) MaxUploadBytes() int64 {
	if s.maxBytes == 0 {
		return 1 << 20
	}
	return s.maxBytes
}

func uploadRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/resources", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func adminContext(w *httptest.ResponseRecorder, req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Email: "admin@college.edu", Role: models.RoleAdmin})
	return c
}

var validUploadFields = map[string]string{
	"title":        "Graph theory notes",
	"tags":         "graphs,bfs",
	"regulation":   "R23",
	"year":         "2",
	"semester":     "1",
	"branch":       "CSE",
	"subjectCode":  "CS201",
	"documentType": "Notes",
	"unit":         "3",
}

func TestResourceHandlerUploadBindsForm(t *testing.T) {
	svc := &resourceServiceStub{}
	w := httptest.NewRecorder()
	c := adminContext(w, uploadRequest(t, validUploadFields, "unit3.pdf", []byte("%PDF-1.4 body")))

	NewResourceHandler(svc).Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, svc.uploaded)
	meta := svc.lastInput.Metadata
	assert.Equal(t, "Graph theory notes", meta.Title)
	assert.Equal(t, 2, meta.Year)
	assert.Equal(t, "3", meta.Unit)
	assert.Equal(t, "unit3.pdf", svc.lastInput.FileName)
	assert.Equal(t, int64(len("%PDF-1.4 body")), svc.lastInput.Size)
	assert.Equal(t, "%PDF-1.4 body", svc.lastContent)
	assert.Equal(t, "admin@college.edu", svc.lastActor.Email)
}

func TestResourceHandlerUploadRequiresFile(t *testing.T) {
	svc := &resourceServiceStub{}
	w := httptest.NewRecorder()
	c := adminContext(w, uploadRequest(t, validUploadFields, "", nil))

	NewResourceHandler(svc).Upload(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.uploaded)
}

func TestResourceHandlerUploadRejectsOversizedBody(t *testing.T) {
	svc := &resourceServiceStub{maxBytes: 16}
	w := httptest.NewRecorder()
	c := adminContext(w, uploadRequest(t, validUploadFields, "big.pdf", bytes.Repeat([]byte("a"), 2<<20)))

	NewResourceHandler(svc).Upload(c)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, svc.uploaded)
}

func TestResourceHandlerUploadPropagatesServiceError(t *testing.T) {
	svc := &resourceServiceStub{uploadErr: appErrors.Clone(appErrors.ErrUnsupportedMedia, "unsupported file type")}
	w := httptest.NewRecorder()
	c := adminContext(w, uploadRequest(t, validUploadFields, "notes.txt", []byte("plain text")))

	NewResourceHandler(svc).Upload(c)

	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestResourceHandlerDownloadRedirects(t *testing.T) {
	svc := &resourceServiceStub{download: &models.ResourceDownload{URL: "http://files.local/token", FileName: "unit3.pdf", ExpiresAt: time.Now().Add(time.Minute)}}
	handler := NewResourceHandler(svc)

	w := httptest.NewRecorder()
	c := adminContext(w, httptest.NewRequest(http.MethodGet, "/resources/res-1/download", nil))
	c.Params = gin.Params{{Key: "id", Value: "res-1"}}
	handler.Download(c)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://files.local/token", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	c = adminContext(w, httptest.NewRequest(http.MethodGet, "/resources/res-1/download?redirect=false", nil))
	c.Params = gin.Params{{Key: "id", Value: "res-1"}}
	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http://files.local/token"))
}

func TestResourceHandlerGetAndDelete(t *testing.T) {
	svc := &resourceServiceStub{}
	handler := NewResourceHandler(svc)

	w := httptest.NewRecorder()
	c := adminContext(w, httptest.NewRequest(http.MethodGet, "/resources/missing", nil))
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	c = adminContext(w, httptest.NewRequest(http.MethodDelete, "/resources/res-1", nil))
	c.Params = gin.Params{{Key: "id", Value: "res-1"}}
	handler.Delete(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "res-1", svc.deletedID)
}
