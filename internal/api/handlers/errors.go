package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"capital-risk/internal/api/models"
	"capital-risk/internal/logger"
	"capital-risk/internal/runs"
	"capital-risk/internal/selection"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func badRequest(c *gin.Context, code string, err error) {
	respondError(c, http.StatusBadRequest, code, err.Error(), nil)
}

// failure maps domain errors onto HTTP responses. Unexpected errors are
// logged and reported as "Failed to <action>"; their text is only exposed
// outside production.
func failure(c *gin.Context, log *logger.Logger, production bool, action string, err error) {
	var capErr *selection.CapError
	var verr *runs.ValidationError
	switch {
	case errors.As(err, &capErr):
		respondError(c, http.StatusConflict, "SELECTION_LIMIT", capErr.Error(), map[string]interface{}{
			"type":  capErr.Type,
			"limit": capErr.Limit,
		})
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), map[string]interface{}{
			"field": verr.Field,
		})
	case errors.Is(err, runs.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, selection.ErrInvalidItem):
		respondError(c, http.StatusBadRequest, "INVALID_ITEM", err.Error(), nil)
	default:
		log.Error("Request failed", "action", action, "path", c.Request.URL.Path, "error", err)
		var details map[string]interface{}
		if !production {
			details = map[string]interface{}{"error": err.Error()}
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action, details)
	}
}

// intParam parses a positive integer path parameter.
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", name+" must be a positive integer", map[string]interface{}{
			"value": c.Param(name),
		})
		return 0, false
	}
	return v, true
}
