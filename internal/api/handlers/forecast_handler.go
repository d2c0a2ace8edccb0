package handlers

import (
	"net/http"

	"github.com/andresuchdata/partsight/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) GetForecasts(c *gin.Context) {
	now, err := referenceTime(c)
	if err != nil {
		badRequest(c, "now must be an RFC3339 timestamp")
		return
	}

	results, err := h.service.Forecasts(c.Request.Context(), now)
	if err != nil {
		respondError(c, err, "failed to compute forecasts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":     now,
		"forecasts": results,
		"total":     len(results),
	})
}

func (h *ForecastHandler) GetForecast(c *gin.Context) {
	now, err := referenceTime(c)
	if err != nil {
		badRequest(c, "now must be an RFC3339 timestamp")
		return
	}

	result, err := h.service.Forecast(c.Request.Context(), c.Param("partNumber"), now)
	if err != nil {
		respondError(c, err, "failed to compute forecast")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ForecastHandler) GetHealth(c *gin.Context) {
	now, err := referenceTime(c)
	if err != nil {
		badRequest(c, "now must be an RFC3339 timestamp")
		return
	}

	items, err := h.service.Health(c.Request.Context(), now)
	if err != nil {
		respondError(c, err, "failed to compute inventory health")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of": now,
		"items": items,
		"total": len(items),
	})
}

func (h *ForecastHandler) GetAlerts(c *gin.Context) {
	now, err := referenceTime(c)
	if err != nil {
		badRequest(c, "now must be an RFC3339 timestamp")
		return
	}

	alerts, err := h.service.ReorderAlerts(c.Request.Context(), now)
	if err != nil {
		respondError(c, err, "failed to compute reorder alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":  now,
		"alerts": alerts,
		"total":  len(alerts),
	})
}

// RefreshSnapshot drops cached snapshots so the next request reloads.
func (h *ForecastHandler) RefreshSnapshot(c *gin.Context) {
	removed, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to refresh snapshot cache")
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
