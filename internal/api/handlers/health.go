package handlers

import (
	"net/http"

	"capital-risk/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health, reporting the configured backends.
func Health(storage, selectionBackend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Storage: storage, Selection: selectionBackend})
	}
}
