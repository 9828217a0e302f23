package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/query"
	"easyadmin/internal/domain/users"
	"easyadmin/internal/infrastructure/http/v1/handlers"
	"easyadmin/internal/infrastructure/http/v1/middleware"
	"easyadmin/internal/infrastructure/storage/postgres"
	"easyadmin/pkg/logger"
)

// DefaultAdminRoles may browse the operation log.
var DefaultAdminRoles = []string{"admin"}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is checked by the readiness probe.
	Pool *postgres.Pool

	// Redis is optional; when set the readiness probe reports it.
	Redis redis.UniversalClient

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Identities loads the roles of the authenticated user.
	Identities middleware.IdentityResolver

	Users         *users.Service
	OperationLogs *query.Service[audit.Record]

	// AdminRoles are the role codes allowed on the operation log.
	// Defaults to DefaultAdminRoles.
	AdminRoles []string

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Pool != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.ClientInfo())
		protected.Use(middleware.Auth(cfg.JWTValidator, cfg.Identities))

		RegisterListRoutes(protected.Group("/users"), handlers.NewUserHandler(base, cfg.Users))

		adminRoles := cfg.AdminRoles
		if len(adminRoles) == 0 {
			adminRoles = DefaultAdminRoles
		}
		logs := handlers.NewOperationLogHandler(base, cfg.OperationLogs)
		protected.POST("/operation-logs/query", middleware.RequireRole(adminRoles...), logs.Query)
	}

	return router
}
