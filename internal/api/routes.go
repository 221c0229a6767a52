package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cvstudio/internal/api/middleware"
	"cvstudio/internal/auth"
	"cvstudio/internal/storage"
)

// RouteOptions carries the tunables handlers need beyond their clients.
type RouteOptions struct {
	AdminEmail            string
	AllowedOrigins        []string
	MaxCVs                int
	LoginRateLimitPerHour int
	LoginLockThreshold    int
	LoginLockTTL          time.Duration
	CookieDomain          string
}

func (o *RouteOptions) applyDefaults() {
	if o.MaxCVs == 0 {
		o.MaxCVs = 50
	}
	if o.LoginRateLimitPerHour == 0 {
		o.LoginRateLimitPerHour = 10
	}
	if o.LoginLockThreshold == 0 {
		o.LoginLockThreshold = 5
	}
	if o.LoginLockTTL == 0 {
		o.LoginLockTTL = 15 * time.Minute
	}
}

// RegisterRoutes mounts all /v1 endpoints.
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	opts RouteOptions,
) {
	opts.applyDefaults()

	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		opts.LoginRateLimitPerHour, opts.LoginLockThreshold, opts.LoginLockTTL, opts.CookieDomain)
	cvHandler := NewCVHandler(db, opts.MaxCVs)
	templateHandler := NewTemplateHandler(db, opts.AdminEmail)
	exportHandler := NewExportHandler(db, asynqClient, storageClient, logger)
	wsHandler := NewWsHandler(redisClient, authService, logger, opts.AllowedOrigins)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
			authGroup.GET("/profile", authMiddleware, authHandler.Profile)
		}

		cvGroup := v1.Group("/cvs")
		cvGroup.Use(authMiddleware)
		{
			cvGroup.POST("", cvHandler.CreateCV)
			cvGroup.GET("", cvHandler.ListCVs)
			cvGroup.GET("/:id", cvHandler.GetCV)
			cvGroup.PATCH("/:id", cvHandler.UpdateCV)
			cvGroup.DELETE("/:id", cvHandler.DeleteCV)

			cvGroup.GET("/:id/export/:format", exportHandler.Export)
			cvGroup.POST("/:id/export/pdf/async", exportHandler.ExportPDFAsync)
			cvGroup.GET("/:id/download-link", exportHandler.DownloadLink)
		}

		v1.POST("/preview", authMiddleware, exportHandler.Preview)

		templateGroup := v1.Group("/templates")
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
			templateGroup.POST("", authMiddleware, templateHandler.CreateTemplate)
			templateGroup.PUT("/:id", authMiddleware, templateHandler.UpdateTemplate)
			templateGroup.DELETE("/:id", authMiddleware, templateHandler.DeleteTemplate)
		}
	}
}
