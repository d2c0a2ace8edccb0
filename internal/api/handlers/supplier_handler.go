package handlers

import (
	"net/http"

	"github.com/andresuchdata/partsight/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SupplierHandler struct {
	service *service.ForecastService
}

func NewSupplierHandler(service *service.ForecastService) *SupplierHandler {
	return &SupplierHandler{service: service}
}

func (h *SupplierHandler) GetScorecards(c *gin.Context) {
	now, err := referenceTime(c)
	if err != nil {
		badRequest(c, "now must be an RFC3339 timestamp")
		return
	}

	cards, err := h.service.SupplierScorecards(c.Request.Context(), now)
	if err != nil {
		respondError(c, err, "failed to score suppliers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":      now,
		"scorecards": cards,
		"total":      len(cards),
	})
}

func (h *SupplierHandler) GetScorecard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "supplier id must be a UUID")
		return
	}

	now, err := referenceTime(c)
	if err != nil {
		badRequest(c, "now must be an RFC3339 timestamp")
		return
	}

	card, err := h.service.SupplierScorecard(c.Request.Context(), id, now)
	if err != nil {
		respondError(c, err, "failed to score supplier")
		return
	}

	c.JSON(http.StatusOK, card)
}
