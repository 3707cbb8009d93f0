package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/studyhub-api/api/swagger"
	"github.com/noah-isme/studyhub-api/internal/middleware"
	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/service"
	"github.com/noah-isme/studyhub-api/pkg/config"
	"github.com/noah-isme/studyhub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/studyhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studyhub-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h *handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/catalog", h.catalog.Catalog)
	api.GET("/filters/subjects", h.catalog.SubjectOptions)
	api.GET("/subjects", h.subject.List)
	api.GET("/subjects/:id", h.subject.Get)
	api.GET("/subjects/:id/syllabus", h.subject.Syllabus)
	api.GET("/listings", h.listing.List)
	if h.files != nil {
		api.GET("/files/:token", h.files.Serve)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(h.auth, h.roles))
	authed.GET("/resources/search", h.search.Search)
	authed.GET("/resources/search/live", h.live.Serve)
	authed.GET("/resources/:id", h.resource.Get)
	authed.GET("/resources/:id/download", h.resource.Download)
	authed.GET("/me/profile", h.profile.Get)
	authed.PUT("/me/profile", h.profile.Update)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/resources", h.resource.Upload)
	admin.DELETE("/resources/:id", h.resource.Delete)
	admin.POST("/subjects", h.subject.Create)
	admin.PUT("/subjects/:id", h.subject.Update)
	admin.DELETE("/subjects/:id", h.subject.Delete)
	if h.extraction != nil {
		admin.POST("/subjects/extract", middleware.Audit(h.audit, models.AuditActionSyllabusExtract, "subjects"), h.extraction.Extract)
	}
	admin.GET("/roles", h.role.List)
	admin.PUT("/roles", h.role.Grant)
	admin.DELETE("/roles/:email", h.role.Revoke)
	admin.POST("/listings", h.listing.Create)
	admin.DELETE("/listings/:id", h.listing.Delete)
	admin.GET("/admin/metrics", h.metrics.Snapshot)

	return r
}
