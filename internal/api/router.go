package api

import (
	"stash/internal/config"

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
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Token", "Authorization"},
	}))
	e.Use(RequestLogger())
	e.Use(middleware.BodyLimit(cfg.MaxBodySize))

	// Rate limiter on the upload endpoint only
	uploadLimiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Health & stats
	e.GET("/status", handler.HandleStatus)
	e.GET("/stats", handler.HandleStats)

	// Accounts & sessions
	e.POST("/users", handler.HandleRegister)
	e.GET("/users/me", handler.HandleMe)
	e.GET("/connect", handler.HandleConnect)
	e.GET("/disconnect", handler.HandleDisconnect)

	// Files
	e.POST("/files", handler.HandleUpload, uploadLimiter.Middleware())
	e.GET("/files", handler.HandleIndex)
	e.GET("/files/:id", handler.HandleShow)
	e.PUT("/files/:id/publish", handler.HandlePublish)
	e.PUT("/files/:id/unpublish", handler.HandleUnpublish)
	e.GET("/files/:id/data", handler.HandleDownload)

	return e
}
