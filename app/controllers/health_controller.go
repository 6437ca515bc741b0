package controllers

import (
	"net/http"
	"time"

	"github.com/busvas-search/app/responses"
	"github.com/busvas-search/app/services"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

type HealthController struct {
	catalogService *services.CatalogService
	cacheService   services.ICacheService
	startTime      time.Time
}

// NewHealthController accepts a nil cache
func NewHealthController(catalogService *services.CatalogService, cacheService services.ICacheService) *HealthController {
	return &HealthController{catalogService: catalogService, cacheService: cacheService, startTime: time.Now()}
}

func (hc *HealthController) report(status string, svc map[string]string) responses.HealthCheckResponse {
	return responses.HealthCheckResponse{
		Status:    status,
		Timestamp: responses.Now(),
		Uptime:    time.Since(hc.startTime).Round(time.Second).String(),
		Version:   Version,
		Services:  svc,
	}
}

// Live only reports that the process answers
func (hc *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, hc.report("healthy", map[string]string{}))
}

// Ready fails until a dataset is loaded
func (hc *HealthController) Ready(c *gin.Context) {
	status := map[string]string{"catalog": "healthy", "cache": "disabled"}
	code := http.StatusOK
	overall := "healthy"

	if hc.catalogService.Index() == nil {
		status["catalog"] = "unavailable"
		code = http.StatusServiceUnavailable
		overall = "unavailable"
	} else {
		status["dataset_version"] = hc.catalogService.Version()
	}

	if hc.cacheService != nil {
		status["cache"] = "healthy"
		if _, err := hc.cacheService.GetStats(c.Request.Context()); err != nil {
			status["cache"] = "degraded"
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}
	c.JSON(code, hc.report(overall, status))
}
