package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/signald/serverconf/internal/api/handlers"
	"github.com/signald/serverconf/internal/api/middleware"
	"github.com/signald/serverconf/internal/auth"
	"github.com/signald/serverconf/internal/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *gorm.DB, store handlers.ServerStore, authenticator auth.Authenticator, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS())

	serverHandler := handlers.NewServerHandler(store)
	infoHandler := handlers.NewInfoHandler(db)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/version", handlers.GetVersion)
		public.GET("/info", infoHandler.GetInfo)
		public.GET("/servers", serverHandler.ListServers)
		public.GET("/servers/:uuid", serverHandler.GetServer)
	}

	// Write routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(authenticator.Middleware())
	{
		protected.POST("/servers", serverHandler.CreateServer)
		protected.DELETE("/servers/:uuid", serverHandler.DeleteServer)
	}

	// Swagger documentation
	router.GET("/api/v1/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("API router initialized", "mode", cfg.Server.Mode, "auth", cfg.Auth.Type)
	return router
}
