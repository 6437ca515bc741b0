package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/app/requests"
	"github.com/busvas-search/app/responses"
	"github.com/busvas-search/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchController answers one-shot searches and autocomplete
type SearchController struct {
	searchService  *services.SearchService
	catalogService *services.CatalogService
	logger         *zap.Logger
}

func NewSearchController(searchService *services.SearchService, catalogService *services.CatalogService, logger *zap.Logger) *SearchController {
	return &SearchController{
		searchService:  searchService,
		catalogService: catalogService,
		logger:         logger,
	}
}

// Search handles POST /v1/search with a JSON body and GET /v1/search with query parameters
func (sc *SearchController) Search(c *gin.Context) {
	var req requests.SearchRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		badRequest(c, err)
		return
	}

	start := time.Now()
	result, err := sc.searchService.Search(c.Request.Context(), req.Origin, req.Destination, req.CacheEnabled())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.SearchResponse{
		Result:           result,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// Suggest handles GET /v1/suggest?q=&limit=
func (sc *SearchController) Suggest(c *gin.Context) {
	query := c.Query("q")
	limit := config.C.SuggestionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, responses.SuggestResponse{
		Query:       query,
		Suggestions: sc.catalogService.Suggest(query, limit),
	})
}
