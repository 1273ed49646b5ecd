package api

import (
	"fileshare/internal/server/config"
	"fileshare/internal/server/models"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))
	e.Use(handler.RequestLogger())

	// Health
	e.GET("/", handler.HandleHealth)

	// Public auth routes
	e.POST("/auth/signup", handler.HandleSignUp)
	e.GET("/auth/verify-email", handler.HandleVerifyEmail)
	e.POST("/auth/login", handler.HandleLogin)

	// Protected file routes
	authenticated := handler.Authenticate([]byte(cfg.SecretKey))
	files := e.Group("/files", authenticated)

	files.POST("/upload", handler.HandleUpload, RequireRole(models.RoleUploader))

	downloaderOnly := RequireRole(models.RoleDownloader)
	files.GET("/list", handler.HandleList, downloaderOnly)
	files.GET("/download-token", handler.HandleDownloadToken, downloaderOnly)
	files.GET("/download/:token", handler.HandleDownload, downloaderOnly)

	return e
}
