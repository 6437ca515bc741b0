package controllers

import (
	"net/http"

	"github.com/busvas-search/app/requests"
	"github.com/busvas-search/app/responses"
	"github.com/busvas-search/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogController exposes the dataset tree for browsing
type CatalogController struct {
	catalogService *services.CatalogService
	logger         *zap.Logger
}

func NewCatalogController(catalogService *services.CatalogService, logger *zap.Logger) *CatalogController {
	return &CatalogController{catalogService: catalogService, logger: logger}
}

func list[T any](c *gin.Context, items []T, err error) {
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.ListResponse{Items: items, Total: len(items)})
}

func (cc *CatalogController) Provinces(c *gin.Context) {
	items, err := cc.catalogService.Provinces()
	list(c, items, err)
}

func (cc *CatalogController) Terminals(c *gin.Context) {
	items, err := cc.catalogService.Terminals(c.Param("provinceID"))
	list(c, items, err)
}

func (cc *CatalogController) Cooperatives(c *gin.Context) {
	items, err := cc.catalogService.Cooperatives(c.Param("terminalID"))
	list(c, items, err)
}

func (cc *CatalogController) Featured(c *gin.Context) {
	items, err := cc.catalogService.Featured()
	list(c, items, err)
}

// RoutesTo handles GET /v1/destinations/:name/routes
func (cc *CatalogController) RoutesTo(c *gin.Context) {
	items, err := cc.catalogService.RoutesTo(c.Param("name"))
	list(c, items, err)
}

// MapLinks resolves svg element ids of the province map
func (cc *CatalogController) MapLinks(c *gin.Context) {
	var req requests.MapLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	links, err := cc.catalogService.LinkMapIDs(req.IDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.MapLinksResponse{Links: links})
}
