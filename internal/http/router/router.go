package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hhuzhang0517/genrtl-saas/internal/http/handler"
	"github.com/hhuzhang0517/genrtl-saas/internal/http/middleware"
	"github.com/hhuzhang0517/genrtl-saas/internal/service"
)

type RouterConfig struct {
	TraceHeaderName string
	Auth            middleware.AuthConfig

	// Ready, when set, is checked by /health; a failure answers 503.
	Ready func(ctx context.Context) error
}

func SetupRoutes(router *gin.Engine, jobService service.JobService, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		if cfg.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Ready(ctx); err != nil {
				slog.WarnContext(ctx, "readiness check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1", middleware.RequireAuth(cfg.Auth))
	{
		jobHandler := handler.NewJobHandler(jobService, cfg.TraceHeaderName)
		JobRouter(v1.Group("/rtl/jobs"), jobHandler)
	}
}
