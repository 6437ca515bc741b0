package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/busvas-search/app/requests"
	"github.com/busvas-search/app/responses"
	"github.com/busvas-search/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultWarmWorkers = 8

type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{adminService: adminService, logger: logger}
}

func success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: responses.Now(),
	})
}

func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// InvalidateCache drops cached results of older dataset versions
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	version, err := ac.adminService.InvalidateCache(c.Request.Context())
	if err != nil {
		ac.logger.Error("Cache invalidation failed", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	success(c, "cache invalidated", gin.H{"dataset_version": version})
}

func (ac *AdminController) ClearCache(c *gin.Context) {
	if err := ac.adminService.ClearCache(c.Request.Context()); err != nil {
		ac.logger.Error("Cache clear failed", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	success(c, "cache cleared", nil)
}

func (ac *AdminController) WarmCache(c *gin.Context) {
	req := requests.WarmRequest{Workers: defaultWarmWorkers}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	start := time.Now()
	warmed, err := ac.adminService.WarmCache(c.Request.Context(), req.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	success(c, "cache warmed", gin.H{
		"searches":           warmed,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

// Reload fetches the published dataset again
func (ac *AdminController) Reload(c *gin.Context) {
	result, err := ac.adminService.Reload(c.Request.Context())
	if err != nil {
		ac.logger.Error("Catalog reload failed", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	success(c, "catalog reloaded", result)
}

func (ac *AdminController) SeedMeili(c *gin.Context) {
	result, err := ac.adminService.SeedMeili(c.Request.Context())
	if err != nil {
		ac.logger.Error("Meilisearch seed failed", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	success(c, "meilisearch seeded", result)
}

// SearchMirror handles GET /v1/admin/meili/search?q=&terminal_id=&limit=
func (ac *AdminController) SearchMirror(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	hits, err := ac.adminService.SearchMirror(c.Query("q"), c.Query("terminal_id"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.ListResponse{Items: hits, Total: len(hits)})
}
