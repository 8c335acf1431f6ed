package api

import (
	"context"
	"net/http"

	"referral_app/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRootRoutes mounts the welcome route, the health check and the 404
// fallback.
func NewRootRoutes(router *gin.Engine, api *gin.RouterGroup, db Pinger) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Welcome to the Referral System API",
		})
	})

	api.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			logger.Logger().Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"message": "Database unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found")
	})
}
