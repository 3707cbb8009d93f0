package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/service"
)

func TestMetricsHandlerSnapshotCountsSearches(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveSearch(service.SearchOutcomeOK, "page", 5*time.Millisecond)
	metrics.ObserveSearch(service.SearchOutcomeError, "page", time.Millisecond)
	metrics.RecordStaleLiveResponse()

	w := httptest.NewRecorder()
	NewMetricsHandler(metrics).Snapshot(adminContext(w, httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)))
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot models.SystemMetrics
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &snapshot))
	assert.Equal(t, uint64(2), snapshot.SearchesTotal)
	assert.Equal(t, uint64(1), snapshot.SearchFailures)
	assert.Equal(t, uint64(1), snapshot.StaleLiveResponses)
}

func TestMetricsHandlerPrometheusExposition(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveSearch(service.SearchOutcomeEmpty, "corpus", time.Millisecond)

	w := httptest.NewRecorder()
	NewMetricsHandler(metrics).Prometheus(adminContext(w, httptest.NewRequest(http.MethodGet, "/metrics", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "resource_search_total")
}
