package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries     map[string][]byte
	generations map[string]int64
	genErr      error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte), generations: make(map[string]int64)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) Generation(ctx context.Context, key string) (int64, error) {
	if m.genErr != nil {
		return 0, m.genErr
	}
	return m.generations[key], nil
}

func (m *memoryCacheRepo) Bump(ctx context.Context, key string) (int64, error) {
	m.generations[key]++
	return m.generations[key], nil
}

type stubOptionLister struct {
	options []models.SubjectOption
	err     error
	calls   int
	scopes  []models.SubjectScope
}

func (s *stubOptionLister) Options(ctx context.Context, scope models.SubjectScope) ([]models.SubjectOption, error) {
	s.calls++
	s.scopes = append(s.scopes, scope)
	return s.options, s.err
}

func TestSubjectOptionsWithoutCache(t *testing.T) {
	repo := &stubOptionLister{options: []models.SubjectOption{{Code: "CS201", Name: "Data Structures"}}}
	svc := NewFilterOptionService(repo, nil, time.Minute, nil, nil)

	scope := models.SubjectScope{Regulation: "R23", Year: 2}
	options, err := svc.SubjectOptions(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, repo.options, options)

	_, err = svc.SubjectOptions(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
	assert.Equal(t, scope, repo.scopes[0])
}

func TestSubjectOptionsNilBecomesEmpty(t *testing.T) {
	svc := NewFilterOptionService(&stubOptionLister{}, nil, 0, nil, nil)

	options, err := svc.SubjectOptions(context.Background(), models.SubjectScope{})
	require.NoError(t, err)
	assert.NotNil(t, options)
	assert.Empty(t, options)
}

func TestSubjectOptionsStoreFailure(t *testing.T) {
	repo := &stubOptionLister{err: errors.New("permission denied")}
	svc := NewFilterOptionService(repo, nil, 0, nil, nil)

	options, err := svc.SubjectOptions(context.Background(), models.SubjectScope{Regulation: "R22"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStoreUnavailable))
	assert.NotNil(t, options)
	assert.Empty(t, options)
}

func TestSubjectOptionsCachedPerScope(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	repo := &stubOptionLister{options: []models.SubjectOption{{Code: "EE101", Name: "Circuits"}}}
	svc := NewFilterOptionService(repo, cache, time.Minute, nil, nil)

	scope := models.SubjectScope{Regulation: "R23", Semester: 1}
	first, err := svc.SubjectOptions(context.Background(), scope)
	require.NoError(t, err)
	second, err := svc.SubjectOptions(context.Background(), scope)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)
	assert.Contains(t, cacheRepo.entries, "studyhub:filters:subjects:g0:R23:-:1")

	_, err = svc.SubjectOptions(context.Background(), models.SubjectScope{Regulation: "R23", Semester: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestSubjectOptionsFailureIsNotCached(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	repo := &stubOptionLister{err: errors.New("timeout")}
	svc := NewFilterOptionService(repo, cache, time.Minute, nil, nil)

	_, err := svc.SubjectOptions(context.Background(), models.SubjectScope{})
	require.Error(t, err)
	assert.Empty(t, cacheRepo.entries)
}

func TestInvalidateSubjectsDropsEveryScope(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	repo := &stubOptionLister{options: []models.SubjectOption{{Code: "CS101", Name: "Programming"}}}
	svc := NewFilterOptionService(repo, cache, time.Minute, nil, nil)

	_, _ = svc.SubjectOptions(context.Background(), models.SubjectScope{Regulation: "R20"})
	_, _ = svc.SubjectOptions(context.Background(), models.SubjectScope{Regulation: "R23", Year: 1})
	require.Len(t, cacheRepo.entries, 2)

	svc.InvalidateSubjects(context.Background())
	assert.Equal(t, int64(1), cacheRepo.generations["studyhub:filters:subjects:gen"])

	_, _ = svc.SubjectOptions(context.Background(), models.SubjectScope{Regulation: "R20"})
	assert.Equal(t, 3, repo.calls)
	assert.Contains(t, cacheRepo.entries, "studyhub:filters:subjects:g1:R20:-:-")
}

func TestSubjectOptionsBypassCacheWhenGenerationUnreadable(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.genErr = errors.New("connection refused")
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	repo := &stubOptionLister{options: []models.SubjectOption{{Code: "ME201", Name: "Thermodynamics"}}}
	svc := NewFilterOptionService(repo, cache, time.Minute, nil, nil)

	options, err := svc.SubjectOptions(context.Background(), models.SubjectScope{Regulation: "R23"})
	require.NoError(t, err)
	assert.Equal(t, repo.options, options)
	assert.Empty(t, cacheRepo.entries)
}
