package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"kayak-backend/services"
	"kayak-backend/utils"

	"github.com/gin-gonic/gin"
)

type CascadeController struct {
	CascadeSvc *services.CascadeService
}

func NewCascadeController(svc *services.CascadeService) *CascadeController {
	return &CascadeController{CascadeSvc: svc}
}

// POST /api/update-bookings-after-route-delete
func (c *CascadeController) ClearRoute(ctx *gin.Context) {
	var req struct {
		RouteID json.RawMessage `json:"routeId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid payload", "affectedBookings": 0})
		return
	}
	routeID, ok := utils.ParseID(req.RouteID)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "routeId is required", "affectedBookings": 0})
		return
	}

	affected, err := c.CascadeSvc.ClearRoute(ctx.Request.Context(), routeID)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Error(), "affectedBookings": 0})
			return
		}
		log.Printf("❌ update bookings after route %d delete: %v", routeID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"success":          false,
			"message":          "failed to update bookings",
			"affectedBookings": affected,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          fmt.Sprintf("Zaktualizowano %d rezerwacji", affected),
		"affectedBookings": affected,
	})
}
