package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/search"
	"github.com/noah-isme/studyhub-api/pkg/config"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

const searchOutcomeCanceled = "canceled"

type resourceSearcher interface {
	Search(ctx context.Context, q search.CompiledQuery) ([]models.ResourceRecord, int, error)
	Find(ctx context.Context, q search.CompiledQuery) ([]models.ResourceRecord, error)
}

// SearchServiceConfig tunes pagination bounds and text search behaviour.
type SearchServiceConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	TextMode        string
}

// SearchService runs faceted resource searches.
type SearchService struct {
	repo    resourceSearcher
	metrics *MetricsService
	logger  *zap.Logger
	cfg     SearchServiceConfig
}

// NewSearchService creates a new search service.
func NewSearchService(repo resourceSearcher, metrics *MetricsService, logger *zap.Logger, cfg SearchServiceConfig) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = search.DefaultPageSize
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if cfg.TextMode != config.TextModeCorpus {
		cfg.TextMode = config.TextModePage
	}
	return &SearchService{repo: repo, metrics: metrics, logger: logger, cfg: cfg}
}

// TextMode reports how free-text queries interact with pagination.
func (s *SearchService) TextMode() string {
	return s.cfg.TextMode
}

// Search compiles req, queries the store and assembles one page. The returned result is
// never nil: when the store fails an empty page is returned together with the error so
// callers can render the empty state and still tell a failure from zero matches.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	start := time.Now()
	page, pageSize := s.window(req.Page, req.PageSize)
	q := search.Compile(req.Filter, req.Sort, page, pageSize)

	var (
		result models.SearchResult
		err    error
	)
	if req.Filter.Query != "" && s.cfg.TextMode == config.TextModeCorpus {
		result, err = s.searchCorpus(ctx, q, req.Filter.Query, page, pageSize)
	} else {
		var records []models.ResourceRecord
		var total int
		records, total, err = s.repo.Search(ctx, q)
		if err == nil {
			result = search.Assemble(records, req.Filter, page, pageSize, total)
		}
	}
	s.metrics.ObserveDBQuery("resource_search", time.Since(start))

	if err != nil {
		empty := search.Empty(page, pageSize)
		if errors.Is(err, context.Canceled) {
			s.metrics.ObserveSearch(searchOutcomeCanceled, s.cfg.TextMode, time.Since(start))
			return &empty, err
		}
		s.metrics.ObserveSearch(SearchOutcomeError, s.cfg.TextMode, time.Since(start))
		s.logger.Error("resource search failed",
			zap.Error(err),
			zap.Int("predicates", len(q.Predicates)),
			zap.String("sort", q.Sort.Field+"_"+q.Sort.Direction),
			zap.Int("page", page),
		)
		return &empty, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "resource search failed")
	}

	outcome := SearchOutcomeOK
	if result.Total == 0 {
		outcome = SearchOutcomeEmpty
	}
	s.metrics.ObserveSearch(outcome, s.cfg.TextMode, time.Since(start))
	return &result, nil
}

// searchCorpus applies the text filter to every row matching the predicates before
// paginating, so the total and hasMore describe the whole matching set.
func (s *SearchService) searchCorpus(ctx context.Context, q search.CompiledQuery, text string, page, pageSize int) (models.SearchResult, error) {
	records, err := s.repo.Find(ctx, q.Unpaged())
	if err != nil {
		return models.SearchResult{}, err
	}
	items := make([]models.Resource, 0, len(records))
	for _, record := range records {
		items = append(items, search.ToResource(record))
	}
	return search.Paginate(search.FilterByQuery(items, text), page, pageSize), nil
}

func (s *SearchService) window(page, pageSize int) (int, int) {
	if pageSize < 1 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	return search.NormalizePage(page, pageSize)
}
