package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/handler"
	"github.com/noah-isme/studyhub-api/internal/repository"
	"github.com/noah-isme/studyhub-api/internal/service"
	"github.com/noah-isme/studyhub-api/pkg/cache"
	"github.com/noah-isme/studyhub-api/pkg/config"
	"github.com/noah-isme/studyhub-api/pkg/database"
	"github.com/noah-isme/studyhub-api/pkg/jobs"
	"github.com/noah-isme/studyhub-api/pkg/llm"
	"github.com/noah-isme/studyhub-api/pkg/logger"
	"github.com/noah-isme/studyhub-api/pkg/storage"
)

// @title StudyHub API
// @version 1.0.0
// @description Academic resource portal: faceted resource search, curriculum and admin console.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	shutdownTimeout   = 15 * time.Second
	queueDrainTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database, logr); err != nil {
			return err
		}
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		if redisClient, err = cache.NewRedis(ctx, cfg.Redis); err != nil {
			return err
		}
		defer redisClient.Close() //nolint:errcheck
	}

	store, localFiles, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	queue := jobs.NewQueue("storage", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	deps, err := buildHandlers(ctx, cfg, logr, db, redisClient, store, localFiles, queue, metrics)
	if err != nil {
		return err
	}
	queue.Start(context.WithoutCancel(ctx))
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), queueDrainTimeout)
		defer cancel()
		queue.Stop(drainCtx)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, metrics, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env),
			zap.String("storage", cfg.Storage.Driver), zap.String("search_text_mode", cfg.Search.TextMode),
			zap.Bool("cache", cfg.Cache.Enabled), zap.Bool("ai_extraction", cfg.AI.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStorage selects the object store. The local driver is also returned on its own so
// its signed file route can be mounted.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, *storage.LocalStorage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinIO:
		store, err := storage.NewMinIO(ctx, cfg.Storage.MinIO)
		if err != nil {
			return nil, nil, fmt.Errorf("init minio storage: %w", err)
		}
		return store, nil, nil
	case config.StorageDriverLocal, "":
		publicURL := cfg.Storage.PublicBaseURL
		if publicURL == "" {
			publicURL = cfg.APIPrefix + "/files"
		}
		signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
		local, err := storage.NewLocalStorage(cfg.Storage.LocalDir, publicURL, signer)
		if err != nil {
			return nil, nil, fmt.Errorf("init local storage: %w", err)
		}
		return local, local, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

type handlers struct {
	auth       *service.AuthService
	roles      *service.RoleService
	audit      *repository.AuditRepository
	search     *handler.SearchHandler
	live       *handler.LiveSearchHandler
	catalog    *handler.CatalogHandler
	resource   *handler.ResourceHandler
	files      *handler.FileHandler
	subject    *handler.SubjectHandler
	extraction *handler.ExtractionHandler
	role       *handler.RoleHandler
	profile    *handler.ProfileHandler
	listing    *handler.ListingHandler
	metrics    *handler.MetricsHandler
}

func buildHandlers(ctx context.Context, cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client,
	store storage.Storage, localFiles *storage.LocalStorage, queue *jobs.Queue, metrics *service.MetricsService) (*handlers, error) {
	validate := catalog.NewValidator()

	resourceRepo := repository.NewResourceRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	listingRepo := repository.NewListingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	}

	searchSvc := service.NewSearchService(resourceRepo, metrics, logr, service.SearchServiceConfig{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		TextMode:        cfg.Search.TextMode,
	})
	optionSvc := service.NewFilterOptionService(subjectRepo, cacheSvc, cfg.Cache.TTL, metrics, logr)
	resourceSvc := service.NewResourceService(resourceRepo, store, queue, auditRepo, validate, metrics, logr, service.ResourceServiceConfig{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		DownloadTTL:    cfg.Storage.SignedURLTTL,
		APIPrefix:      cfg.APIPrefix,
	})
	queue.Handle(service.JobDeleteBlob, resourceSvc.DeleteBlobJob)

	subjectSvc := service.NewSubjectService(subjectRepo, optionSvc, auditRepo, validate, logr)
	roleSvc := service.NewRoleService(roleRepo, auditRepo, validate, logr, cfg.Auth.BootstrapAdmins)
	profileSvc := service.NewProfileService(profileRepo, validate, logr)
	listingSvc := service.NewListingService(listingRepo, auditRepo, validate, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})

	h := &handlers{
		auth:     authSvc,
		roles:    roleSvc,
		audit:    auditRepo,
		search:   handler.NewSearchHandler(searchSvc),
		live:     handler.NewLiveSearchHandler(searchSvc, metrics, logr, cfg.CORS.AllowedOrigins),
		catalog:  handler.NewCatalogHandler(optionSvc),
		resource: handler.NewResourceHandler(resourceSvc),
		subject:  handler.NewSubjectHandler(subjectSvc),
		role:     handler.NewRoleHandler(roleSvc),
		profile:  handler.NewProfileHandler(profileSvc),
		listing:  handler.NewListingHandler(listingSvc),
		metrics:  handler.NewMetricsHandler(metrics),
	}
	if localFiles != nil {
		h.files = handler.NewFileHandler(localFiles)
	}

	if cfg.AI.Enabled {
		gemini, err := llm.NewGemini(ctx, cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("init syllabus extraction: %w", err)
		}
		extractionSvc := service.NewExtractionService(gemini, metrics, logr, cfg.AI.MaxPages, cfg.AI.Timeout)
		h.extraction = handler.NewExtractionHandler(extractionSvc, cfg.Storage.MaxUploadBytes)
	}
	return h, nil
}
