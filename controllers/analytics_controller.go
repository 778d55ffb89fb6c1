package controllers

import (
	"net/http"
	"strconv"

	"kayak-backend/services"
	"kayak-backend/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsSvc *services.AnalyticsService
}

func NewAnalyticsController(svc *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsSvc: svc}
}

// GET /api/analytics/summary?year=2025
func (c *AnalyticsController) Summary(ctx *gin.Context) {
	year := 0
	if raw := ctx.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			utils.JSONError(ctx, http.StatusBadRequest, "year must be a four digit number")
			return
		}
		year = y
	}
	ctx.JSON(http.StatusOK, c.AnalyticsSvc.Summary(ctx.Request.Context(), year))
}
