package routes

import (
	"net/http"

	"github.com/busvas-search/app/controllers"
	"github.com/busvas-search/app/middleware"
	"github.com/busvas-search/app/responses"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Controllers bundles every handler the router needs
type Controllers struct {
	Search    *controllers.SearchController
	Catalog   *controllers.CatalogController
	Sessions  *controllers.SessionController
	Favorites *controllers.FavoritesController
	Admin     *controllers.AdminController
	Health    *controllers.HealthController
}

// Options tune the middleware chain
type Options struct {
	RequestsPerMinute int
	Burst             int
}

// SetupAPIRoutes registers the /v1 group
func SetupAPIRoutes(router *gin.Engine, ctrl Controllers, limiter *middleware.IPRateLimiter) {
	v1 := router.Group("/v1")
	if limiter != nil {
		v1.Use(limiter.Middleware())
	}
	{
		v1.GET("/search", ctrl.Search.Search)
		v1.POST("/search", ctrl.Search.Search)
		v1.GET("/suggest", ctrl.Search.Suggest)

		v1.GET("/provinces", ctrl.Catalog.Provinces)
		v1.GET("/provinces/:provinceID/terminals", ctrl.Catalog.Terminals)
		v1.GET("/terminals/:terminalID/cooperatives", ctrl.Catalog.Cooperatives)
		v1.GET("/featured", ctrl.Catalog.Featured)
		v1.GET("/destinations/:name/routes", ctrl.Catalog.RoutesTo)
		v1.POST("/map/links", ctrl.Catalog.MapLinks)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", ctrl.Sessions.Create)
			sessions.GET("/:sessionID", ctrl.Sessions.Get)
			sessions.DELETE("/:sessionID", ctrl.Sessions.Delete)
			sessions.POST("/:sessionID/search", ctrl.Sessions.Submit)
			sessions.POST("/:sessionID/select", ctrl.Sessions.Select)
			sessions.POST("/:sessionID/toggle-all", ctrl.Sessions.ToggleAll)
			sessions.GET("/:sessionID/events", ctrl.Sessions.Events)
		}

		if ctrl.Favorites != nil {
			favorites := v1.Group("/favorites/:owner")
			{
				favorites.GET("", ctrl.Favorites.List)
				favorites.POST("/toggle", ctrl.Favorites.Toggle)
				favorites.PATCH("/:index", ctrl.Favorites.SetFlag)
				favorites.DELETE("/:index", ctrl.Favorites.Remove)
				favorites.DELETE("", ctrl.Favorites.Clear)
			}
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", ctrl.Admin.GetStats)
			admin.POST("/cache/invalidate", ctrl.Admin.InvalidateCache)
			admin.POST("/cache/clear", ctrl.Admin.ClearCache)
			admin.POST("/cache/warm", ctrl.Admin.WarmCache)
			admin.POST("/reload", ctrl.Admin.Reload)
			admin.POST("/meili/seed", ctrl.Admin.SeedMeili)
			admin.GET("/meili/search", ctrl.Admin.SearchMirror)
		}

		v1.GET("/health", ctrl.Health.Ready)
	}
}

func SetupHealthRoutes(router *gin.Engine, health *controllers.HealthController) {
	router.GET("/health", health.Ready)
	router.GET("/ready", health.Ready)
	router.GET("/live", health.Live)
}

// SetupMetricsRoutes exposes the Prometheus registry
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func SetupAllRoutes(router *gin.Engine, ctrl Controllers, opts Options, logger *zap.Logger) {
	setupMiddleware(router, logger)

	var limiter *middleware.IPRateLimiter
	if opts.RequestsPerMinute > 0 {
		limiter = middleware.NewIPRateLimiter(opts.RequestsPerMinute, opts.Burst)
	}

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Health)
	SetupAPIRoutes(router, ctrl, limiter)
	SetupMetricsRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:     "ROUTE_NOT_FOUND",
			Message:   c.Request.Method + " " + c.Request.URL.Path + " not found",
			Timestamp: responses.Now(),
			RequestID: c.GetString(middleware.RequestIDKey),
		})
	})
}

func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
}
