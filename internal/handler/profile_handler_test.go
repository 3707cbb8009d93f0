package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/service"
)

type profileServiceStub struct {
	lastClaims *models.JWTClaims
	lastReq    service.UpdateProfileRequest
}

func (s *profileServiceStub) Get(ctx context.Context, claims *models.JWTClaims) (*models.Profile, error) {
	s.lastClaims = claims
	return &models.Profile{Email: claims.Email, DisplayName: "Admin"}, nil
}

func (s *profileServiceStub) Update(ctx context.Context, claims *models.JWTClaims, req service.UpdateProfileRequest) (*models.Profile, error) {
	s.lastClaims = claims
	s.lastReq = req
	return &models.Profile{Email: claims.Email, DisplayName: req.DisplayName, Regulation: req.Regulation}, nil
}

func TestProfileHandlerRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/me/profile", nil)

	NewProfileHandler(&profileServiceStub{}).Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileHandlerGetAndUpdate(t *testing.T) {
	svc := &profileServiceStub{}
	handler := NewProfileHandler(svc)

	w := httptest.NewRecorder()
	handler.Get(adminContext(w, httptest.NewRequest(http.MethodGet, "/me/profile", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@college.edu", svc.lastClaims.Email)

	req := httptest.NewRequest(http.MethodPut, "/me/profile", bytes.NewBufferString(`{"display_name":"Asha","regulation":"R23","year":2}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	handler.Update(adminContext(w, req))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.UpdateProfileRequest{DisplayName: "Asha", Regulation: "R23", Year: 2}, svc.lastReq)
}
