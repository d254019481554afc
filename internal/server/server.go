// Package server wires repositories, services and handlers into the HTTP router.
package server

import (
	"net/http"
	"time"

	"pmis/internal/config"
	"pmis/internal/handler"
	"pmis/internal/logging"
	"pmis/internal/middleware"
	"pmis/internal/repository"
	"pmis/internal/service"
	"pmis/internal/storage"
	"pmis/internal/websocket"
	"pmis/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// App is the assembled API. Run Hub before serving Router.
type App struct {
	Router *gin.Engine
	Hub    *websocket.Hub
	Auth   *middleware.Authenticator
}

// New builds the dependency graph (Repository -> Service -> Handler) and the router.
// nr may be nil when telemetry is not configured.
func New(cfg *config.Config, db *gorm.DB, nr *newrelic.Application) (*App, error) {
	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.FileServerBaseURL)
	if err != nil {
		return nil, err
	}
	hub := websocket.NewHub()

	// Repositories
	tm := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	requestRepo := repository.NewPaymentRequestRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Services
	roleService := service.NewRoleService(tm, roleRepo, auditRepo)
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.PrivilegeCacheTTL,
		cfg.Auth.SecureCookies, roleService)
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, auth)
	auditService := service.NewAuditService(auditRepo)
	paymentService := service.NewPaymentService(tm, requestRepo, approvalRepo, projectRepo, store, hub)
	documentService := service.NewDocumentService(tm, documentRepo, requestRepo, projectRepo, auditRepo,
		store, hub, cfg.Storage.MaxUploadMB)
	reviewService := service.NewReviewService(projectRepo, requestRepo, documentRepo, store)
	reportService := service.NewReportService(projectRepo, reportRepo)
	exportService := service.NewExportService(reportService, service.NewExportGate())
	registry := service.NewRegistry(db, tm, auditRepo, hub)

	// Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(logging.RequestLogger(), gin.Recovery())
	if nr != nil {
		router.Use(nrgin.Middleware(nr))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", logging.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	userHandler := handler.NewUserHandler(userService, auth)
	userHandler.RegisterPublicRoutes(router.Group(""))

	protected := router.Group("")
	protected.Use(auth.RequireAuth())
	protected.Group("/files", middleware.Require(workflow.PrivDocumentRead)).Static("/", store.Root())
	protected.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c)
	})

	userHandler.RegisterRoutes(protected)
	handler.NewRoleHandler(roleService, auth).RegisterRoutes(protected)
	handler.NewAuditHandler(auditService).RegisterRoutes(protected)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(protected)
	handler.NewDocumentHandler(documentService).RegisterRoutes(protected)
	handler.NewReviewHandler(reviewService).RegisterRoutes(protected)
	handler.NewReportHandler(reportService, exportService).RegisterRoutes(protected)
	handler.NewRecordHandler(registry).RegisterRoutes(protected)

	return &App{Router: router, Hub: hub, Auth: auth}, nil
}
