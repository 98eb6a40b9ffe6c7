package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"canvango_backend/internal/handlers"
)

// RegisterRoutes mounts every HTTP route. The callback endpoint gets its
// own middleware chain (rate limit + timeout); everything else shares the
// api group.
func RegisterRoutes(
	router *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authed gin.HandlerFunc,
	callbackMiddleware ...gin.HandlerFunc,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	callback := router.Group("/")
	callback.Use(callbackMiddleware...)
	appHandlers.Callback.RegisterRoutes(callback)

	api := router.Group("/api/v1")
	{
		appHandlers.Auth.RegisterRoutes(api)
		appHandlers.Payment.RegisterRoutes(api, authed)
		appHandlers.SecurityEvents.RegisterRoutes(api, authed)
	}
}
