package handlers

import (
	"net/http"

	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto HTTP statuses:
// not_found -> 404, invalid_state -> 409, content_generation -> 502,
// anything else -> 500.
func respondError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindInvalidState:
		status = http.StatusConflict
	case service.KindContentGeneration:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
