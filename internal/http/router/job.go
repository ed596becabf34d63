package router

import (
	"github.com/gin-gonic/gin"

	"github.com/hhuzhang0517/genrtl-saas/internal/http/handler"
)

func JobRouter(router *gin.RouterGroup, h *handler.JobHandler) {
	router.POST("", h.Submit)
	router.GET("", h.List)
	router.GET("/:id", h.Get)
	router.GET("/:id/usage", h.Usage)
}
