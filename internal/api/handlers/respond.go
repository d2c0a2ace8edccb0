package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// referenceTime returns the ?now= override or the current UTC time.
func referenceTime(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("now"))
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

// respondError maps service errors to a status code.
func respondError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSnapshot):
		status = http.StatusUnprocessableEntity
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}

	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
