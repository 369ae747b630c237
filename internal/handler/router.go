package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouteRegistrar interface {
	RegisterRoutes(r *gin.Engine)
}

// NewRouter 掛上健康檢查、metrics 與各 handler 的路由
func NewRouter(registrars ...RouteRegistrar) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, registrar := range registrars {
		registrar.RegisterRoutes(router)
	}
	return router
}
