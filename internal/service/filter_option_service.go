package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

const subjectOptionsCachePrefix = "filters:subjects"

type subjectOptionLister interface {
	Options(ctx context.Context, scope models.SubjectScope) ([]models.SubjectOption, error)
}

// FilterOptionService resolves the subject dropdown for a regulation/year/semester scope.
type FilterOptionService struct {
	repo    subjectOptionLister
	cache   *CacheService
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewFilterOptionService constructs the resolver. cache may be nil.
func NewFilterOptionService(repo subjectOptionLister, cache *CacheService, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *FilterOptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilterOptionService{repo: repo, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// SubjectOptions returns every subject in scope ordered by code. On failure the error
// is logged and returned together with an empty, non-nil slice.
func (s *FilterOptionService) SubjectOptions(ctx context.Context, scope models.SubjectScope) ([]models.SubjectOption, error) {
	key, cacheable := s.cacheKey(ctx, scope)
	var cached []models.SubjectOption
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	options, err := s.repo.Options(ctx, scope)
	s.metrics.ObserveDBQuery("subject_options", time.Since(start))
	if err != nil {
		s.logger.Error("resolve subject options failed",
			zap.Error(err),
			zap.String("regulation", scope.Regulation),
			zap.Int("year", scope.Year),
			zap.Int("semester", scope.Semester),
		)
		return []models.SubjectOption{}, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load subject options")
	}
	if options == nil {
		options = []models.SubjectOption{}
	}

	if cacheable {
		s.cache.Set(ctx, key, options, s.ttl)
	}
	return options, nil
}

// InvalidateSubjects drops every cached subject dropdown.
func (s *FilterOptionService) InvalidateSubjects(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, subjectOptionsCachePrefix); err != nil {
		s.logger.Warn("subject option cache not invalidated", zap.Error(err))
	}
}

// cacheKey renders <regulation>:<year>:<semester> under the subject options family, "-" marking unset fields.
func (s *FilterOptionService) cacheKey(ctx context.Context, scope models.SubjectScope) (string, bool) {
	part := func(v string) string {
		if v == "" || v == "0" {
			return "-"
		}
		return v
	}
	return s.cache.Key(ctx, subjectOptionsCachePrefix,
		part(scope.Regulation),
		part(strconv.Itoa(scope.Year)),
		part(strconv.Itoa(scope.Semester)),
	)
}
