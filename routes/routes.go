package routes

import (
	"net/http"

	"lakebase_dashboards/controllers"
	"lakebase_dashboards/middleware"
	"lakebase_dashboards/services/dashboard"
	"lakebase_dashboards/services/realtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes sets up the dashboard pages, the JSON API and the websocket
func SetupRoutes(router *gin.Engine, registry *dashboard.Registry, hub *realtime.Hub, limiter *middleware.RateLimiter) {
	dashboardController := controllers.NewDashboardController(registry)

	// Pages
	router.GET("/", dashboardController.Index)
	router.GET("/dashboards/:id", dashboardController.Page)

	// API v1 group
	api := router.Group("/api/v1")
	if limiter != nil {
		api.Use(middleware.RateLimitMiddleware(limiter))
	}
	{
		dashboards := api.Group("/dashboards")
		{
			dashboards.GET("", dashboardController.ListDashboards)
			dashboards.GET("/:id/updates/:tick", dashboardController.GetUpdate)
			dashboards.GET("/:id/figures/:figure", dashboardController.GetFigure)
		}

		api.GET("/ws/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, hub.Status())
		})
	}

	// Live updates
	router.GET("/ws", func(c *gin.Context) {
		hub.HandleWebSocket(c.Writer, c.Request)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
