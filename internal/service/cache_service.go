package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

// cacheNamespace prefixes every key so the Redis database can be shared.
const cacheNamespace = "studyhub:"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) (int64, error)
}

// CacheService is a best effort cache. Keys of a family embed the family's generation,
// so invalidating a family is a single counter bump and stale entries age out by TTL.
// Failures are logged and behave like misses; a nil or disabled service never hits.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Key builds namespace:family:g<generation>:parts... It reports false when the
// cache is off or the generation cannot be read, in which case the caller skips the cache.
func (s *CacheService) Key(ctx context.Context, family string, parts ...string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	gen, err := s.repo.Generation(ctx, generationKey(family))
	if err != nil {
		s.logger.Warn("cache generation unavailable", zap.String("family", family), zap.Error(err))
		return "", false
	}
	return cacheNamespace + family + ":g" + strconv.FormatInt(gen, 10) + ":" + strings.Join(parts, ":"), true
}

// Get loads key into dest and reports a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Set stores value under key; a non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate moves family to a new generation.
func (s *CacheService) Invalidate(ctx context.Context, family string) error {
	if !s.Enabled() {
		return nil
	}
	gen, err := s.repo.Bump(ctx, generationKey(family))
	if err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("family", family), zap.Error(err))
		return err
	}
	s.logger.Debug("cache family invalidated", zap.String("family", family), zap.Int64("generation", gen))
	return nil
}

func generationKey(family string) string {
	return cacheNamespace + family + ":gen"
}
