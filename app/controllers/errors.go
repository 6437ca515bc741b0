package controllers

import (
	"errors"
	"net/http"

	"github.com/busvas-search/app/middleware"
	"github.com/busvas-search/app/responses"
	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/parser"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: responses.Now(),
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

func badRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request: "+err.Error())
}

// respondServiceError maps service errors to their HTTP status
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, parser.ErrEmptyQuery):
		respondError(c, http.StatusBadRequest, "EMPTY_QUERY", err.Error())
	case errors.Is(err, services.ErrIndexOutOfRange):
		respondError(c, http.StatusBadRequest, "INDEX_OUT_OF_RANGE", err.Error())
	case errors.Is(err, services.ErrDatasetEmpty):
		respondError(c, http.StatusServiceUnavailable, "DATASET_UNAVAILABLE", err.Error())
	case errors.Is(err, services.ErrMirrorDisabled):
		respondError(c, http.StatusNotImplemented, "MIRROR_DISABLED", err.Error())
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
