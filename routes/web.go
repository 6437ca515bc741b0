package routes

import (
	"net/http"

	"github.com/busvas-search/app/controllers"
	"github.com/gin-gonic/gin"
)

func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Busvas terminal search",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Busvas search API v1",
				"endpoints": map[string]string{
					"search":       "GET|POST /v1/search",
					"suggest":      "GET /v1/suggest?q=",
					"provinces":    "GET /v1/provinces",
					"terminals":    "GET /v1/provinces/:provinceID/terminals",
					"cooperatives": "GET /v1/terminals/:terminalID/cooperatives",
					"featured":     "GET /v1/featured",
					"routes_to":    "GET /v1/destinations/:name/routes",
					"map_links":    "POST /v1/map/links",
					"sessions":     "POST /v1/sessions",
					"navigate":     "POST /v1/sessions/:sessionID/search",
					"events":       "GET /v1/sessions/:sessionID/events",
					"favorites":    "GET /v1/favorites/:owner",
					"health":       "GET /health",
					"metrics":      "GET /metrics",
				},
			})
		})
	}
}
