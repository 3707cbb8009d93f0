package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/search"
	"github.com/noah-isme/studyhub-api/pkg/config"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

type stubResourceSearcher struct {
	records   []models.ResourceRecord
	total     int
	err       error
	lastQuery search.CompiledQuery
	findCalls int
}

func (s *stubResourceSearcher) Search(ctx context.Context, q search.CompiledQuery) ([]models.ResourceRecord, int, error) {
	s.lastQuery = q
	if s.err != nil {
		return nil, 0, s.err
	}
	end := q.Offset + q.Limit
	if end > len(s.records) {
		end = len(s.records)
	}
	if q.Offset >= len(s.records) {
		return nil, s.total, nil
	}
	return s.records[q.Offset:end], s.total, nil
}

func (s *stubResourceSearcher) Find(ctx context.Context, q search.CompiledQuery) ([]models.ResourceRecord, error) {
	s.lastQuery = q
	s.findCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func resourceRows(n int, titleAt func(i int) string) []models.ResourceRecord {
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.ResourceRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.ResourceRecord{
			ID:           fmt.Sprintf("r-%02d", i),
			Title:        titleAt(i),
			Regulation:   "R23",
			Year:         2,
			Semester:     1,
			Branch:       "CSE",
			SubjectCode:  "CS201",
			DocumentType: "Notes",
			UploadedAt:   base.Add(-time.Duration(i) * time.Hour),
		})
	}
	return rows
}

func everyTwelfthIsGraph(i int) string {
	if i > 0 && i%12 == 0 {
		return fmt.Sprintf("Graph algorithms %d", i)
	}
	return fmt.Sprintf("Sorting notes %d", i)
}

func TestSearchServicePageMode(t *testing.T) {
	repo := &stubResourceSearcher{records: resourceRows(120, everyTwelfthIsGraph), total: 120}
	svc := NewSearchService(repo, nil, nil, SearchServiceConfig{})

	result, err := svc.Search(context.Background(), models.SearchRequest{
		Filter: models.ResourceFilter{Regulation: "R23", Year: 2},
		Page:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, result.Total)
	assert.Len(t, result.Items, 50)
	assert.True(t, result.HasMore)
	assert.Equal(t, 50, repo.lastQuery.Offset)
	assert.Len(t, repo.lastQuery.Predicates, 2)
	assert.Equal(t, search.DefaultSort(), repo.lastQuery.Sort)
}

func TestSearchServicePageModeCountsFetchedPageOnly(t *testing.T) {
	repo := &stubResourceSearcher{records: resourceRows(120, everyTwelfthIsGraph), total: 120}
	svc := NewSearchService(repo, nil, nil, SearchServiceConfig{TextMode: config.TextModePage})

	result, err := svc.Search(context.Background(), models.SearchRequest{Filter: models.ResourceFilter{Query: "graph"}})
	require.NoError(t, err)
	assert.Equal(t, config.TextModePage, svc.TextMode())
	assert.Equal(t, 4, result.Total)
	assert.Len(t, result.Items, 4)
	assert.False(t, result.HasMore)
	assert.Zero(t, repo.findCalls)
}

func TestSearchServiceCorpusModeCountsWholeSet(t *testing.T) {
	repo := &stubResourceSearcher{records: resourceRows(120, everyTwelfthIsGraph), total: 120}
	svc := NewSearchService(repo, nil, nil, SearchServiceConfig{TextMode: config.TextModeCorpus, DefaultPageSize: 5})

	result, err := svc.Search(context.Background(), models.SearchRequest{Filter: models.ResourceFilter{Query: "GRAPH"}})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findCalls)
	assert.Zero(t, repo.lastQuery.Limit)
	assert.Equal(t, 9, result.Total)
	assert.Len(t, result.Items, 5)
	assert.True(t, result.HasMore)
	assert.Equal(t, "r-12", result.Items[0].ID)
}

func TestSearchServiceClampsPageSize(t *testing.T) {
	repo := &stubResourceSearcher{}
	svc := NewSearchService(repo, nil, nil, SearchServiceConfig{DefaultPageSize: 20, MaxPageSize: 100})

	_, err := svc.Search(context.Background(), models.SearchRequest{PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastQuery.Limit)

	_, err = svc.Search(context.Background(), models.SearchRequest{PageSize: -1, Page: -3})
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastQuery.Limit)
	assert.Zero(t, repo.lastQuery.Offset)
}

func TestSearchServiceStoreFailureReturnsEmptyPage(t *testing.T) {
	repo := &stubResourceSearcher{err: errors.New("connection refused")}
	svc := NewSearchService(repo, NewMetricsService(), nil, SearchServiceConfig{})

	result, err := svc.Search(context.Background(), models.SearchRequest{Page: 3})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStoreUnavailable))
	require.NotNil(t, result)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Total)
	assert.Equal(t, 3, result.Page)
	assert.False(t, result.HasMore)
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().SearchFailures)
}

func TestSearchServiceCanceledIsNotAStoreFailure(t *testing.T) {
	repo := &stubResourceSearcher{err: context.Canceled}
	svc := NewSearchService(repo, nil, nil, SearchServiceConfig{})

	result, err := svc.Search(context.Background(), models.SearchRequest{})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, appErrors.HasCode(err, appErrors.ErrStoreUnavailable))
	assert.NotNil(t, result)
}

func TestSearchServiceHugePageIsEmptyNotAFailure(t *testing.T) {
	huge := math.MaxInt/50 + 2
	for _, mode := range []string{config.TextModePage, config.TextModeCorpus} {
		repo := &stubResourceSearcher{records: resourceRows(3, everyTwelfthIsGraph), total: 3}
		svc := NewSearchService(repo, nil, nil, SearchServiceConfig{TextMode: mode})

		var (
			result *models.SearchResult
			err    error
		)
		require.NotPanics(t, func() {
			result, err = svc.Search(context.Background(), models.SearchRequest{
				Filter: models.ResourceFilter{Query: "sorting"},
				Page:   huge,
			})
		}, mode)
		require.NoError(t, err, mode)
		assert.Empty(t, result.Items, mode)
		assert.False(t, result.HasMore, mode)
		assert.Equal(t, search.MaxPage(50), result.Page, mode)
		assert.GreaterOrEqual(t, repo.lastQuery.Offset, 0, mode)
	}
}

func TestSearchServiceMatchesSubjectCodeCaseInsensitively(t *testing.T) {
	repo := &stubResourceSearcher{}
	svc := NewSearchService(repo, nil, nil, SearchServiceConfig{})

	_, err := svc.Search(context.Background(), models.SearchRequest{Filter: models.ResourceFilter{SubjectCode: "cs201"}})
	require.NoError(t, err)
	require.Len(t, repo.lastQuery.Predicates, 1)
	assert.Equal(t, "CS201", repo.lastQuery.Predicates[0].Value)
}
