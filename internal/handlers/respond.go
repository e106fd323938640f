package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/storefront/internal/service"
)

// respondError maps the service error taxonomy onto HTTP. Unknown errors
// get a generic message; the detail stays in the server log.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch service.KindOf(err) {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindDuplicate, service.KindInsufficientStock:
		status = http.StatusConflict
	case service.KindInvalidState:
		status = http.StatusUnprocessableEntity
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	case service.KindForbidden:
		status = http.StatusForbidden
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("unexpected error")
		message = "internal server error"
	}

	c.JSON(status, gin.H{"success": false, "message": message})
}

func respond(c *gin.Context, status int, payload gin.H) {
	out := gin.H{"success": true}
	for k, v := range payload {
		out[k] = v
	}
	c.JSON(status, out)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
