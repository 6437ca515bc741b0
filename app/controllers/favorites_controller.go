package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/busvas-search/app/requests"
	"github.com/busvas-search/app/responses"
	"github.com/busvas-search/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FavoritesController struct {
	favoritesService *services.FavoritesService
	logger           *zap.Logger
}

func NewFavoritesController(favoritesService *services.FavoritesService, logger *zap.Logger) *FavoritesController {
	return &FavoritesController{favoritesService: favoritesService, logger: logger}
}

func owner(c *gin.Context) (string, bool) {
	o := strings.TrimSpace(c.Param("owner"))
	if o == "" {
		respondError(c, http.StatusBadRequest, "MISSING_OWNER", "owner is required")
		return "", false
	}
	return o, true
}

func index(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INDEX", "index must be an integer")
		return 0, false
	}
	return i, true
}

func (fc *FavoritesController) List(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	routes, err := fc.favoritesService.List(c.Request.Context(), o)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.FavoritesResponse{Owner: o, Routes: routes})
}

// Toggle adds the route or removes it when already saved
func (fc *FavoritesController) Toggle(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req requests.ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Route.Destination == "" || req.Route.Time == "" {
		respondError(c, http.StatusBadRequest, "INVALID_ROUTE", "route needs destino and hora")
		return
	}
	routes, added, err := fc.favoritesService.Toggle(c.Request.Context(), o, req.Route)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.FavoritesResponse{Owner: o, Routes: routes, Added: &added})
}

func (fc *FavoritesController) SetFlag(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	i, ok := index(c)
	if !ok {
		return
	}
	var req requests.SetFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	routes, err := fc.favoritesService.SetFlag(c.Request.Context(), o, i, req.Favorite)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.FavoritesResponse{Owner: o, Routes: routes})
}

func (fc *FavoritesController) Remove(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	i, ok := index(c)
	if !ok {
		return
	}
	routes, err := fc.favoritesService.RemoveAt(c.Request.Context(), o, i)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.FavoritesResponse{Owner: o, Routes: routes})
}

func (fc *FavoritesController) Clear(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	if err := fc.favoritesService.Clear(c.Request.Context(), o); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
