package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/wardenhq/warden/api/swagger"
	"github.com/wardenhq/warden/internal/gateway"
	"github.com/wardenhq/warden/internal/handler"
	"github.com/wardenhq/warden/internal/middleware"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/repository"
	"github.com/wardenhq/warden/internal/service"
	"github.com/wardenhq/warden/pkg/cache"
	"github.com/wardenhq/warden/pkg/config"
	"github.com/wardenhq/warden/pkg/database"
	"github.com/wardenhq/warden/pkg/logger"
	corsmiddleware "github.com/wardenhq/warden/pkg/middleware/cors"
	reqidmiddleware "github.com/wardenhq/warden/pkg/middleware/requestid"
	"github.com/wardenhq/warden/pkg/storage"
)

// @title Warden Governance API
// @version 0.1.0
// @description Multi-party request governance for custody operations
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, notifications disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	requestRepo := repository.NewRequestRepository(repository.WithRepositoryLogger(logr))
	policyRepo := repository.NewPolicyRepository()
	registryRepo := repository.NewRegistryRepository()
	auditRepo := repository.NewAuditRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)

	// Services.
	identities := service.NewRegistryIdentityProvider(registryRepo)
	policySvc := service.NewPolicyService(policyRepo, identities, logr)
	notifier := service.NewNotificationService(redisClient, cfg.Requests.NotifyChan, logr)
	metricsSvc := service.NewMetricsService(func() int {
		return len(requestRepo.FindByFilter(models.RequestFilter{
			Statuses: []models.RequestStatus{models.RequestStatusCreated},
		}))
	})

	transferGw := gateway.NewLoggingTransferGateway(logr)
	unitMgr := gateway.NewLoggingUnitManager(logr, cfg.Upgrader.EngineIdentity)

	executorSvc := service.NewExecutorService(
		requestRepo, registryRepo, policySvc, transferGw, unitMgr,
		auditRepo, metricsSvc, notifier, logr,
		service.ExecutorConfig{
			EngineIdentity: cfg.Upgrader.EngineIdentity,
			DetachUpgrades: cfg.Upgrader.Detached,
		},
	)
	executorSvc.Start(context.Background())
	defer executorSvc.Stop()

	requestSvc := service.NewRequestService(
		requestRepo, policySvc, executorSvc, notifier, auditRepo, logr,
		service.WithRequestTTL(cfg.Requests.TTL),
		service.WithMaxListLimit(cfg.Requests.MaxListLimit),
		service.WithLifecycleMetrics(metricsSvc),
	)

	authSvc := service.NewAuthService(operatorRepo, auditRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})

	var exportSvc *service.ExportService
	if cfg.Reports.Enabled {
		files, err := storage.NewReportStore(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
		}
		signer := storage.NewDownloadSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc = service.NewExportService(requestRepo, policySvc, files, signer, auditRepo, logr,
			service.WithReportRetention(cfg.Reports.Retention))
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, auditRepo)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("", middleware.JWT(authSvc))
	protected.POST("/requests", requestHandler.Create)
	protected.GET("/requests", requestHandler.List)
	protected.GET("/requests/:id", requestHandler.Get)
	protected.POST("/requests/:id/votes", requestHandler.Vote)
	protected.GET("/requests/:id/audit", requestHandler.AuditTrail)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		protected.POST("/reports/requests",
			middleware.Audit(auditRepo, models.AuditActionReportExport, "reports"),
			exportHandler.Export)
		protected.GET("/reports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
