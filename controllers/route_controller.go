package controllers

import (
	"net/http"

	"kayak-backend/models"
	"kayak-backend/services"
	"kayak-backend/utils"

	"github.com/gin-gonic/gin"
)

type RouteController struct {
	RouteSvc   *services.RouteService
	CascadeSvc *services.CascadeService
}

func NewRouteController(routes *services.RouteService, cascade *services.CascadeService) *RouteController {
	return &RouteController{RouteSvc: routes, CascadeSvc: cascade}
}

// GET /api/routes
func (c *RouteController) List(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.RouteSvc.List(ctx.Request.Context()))
}

// POST /api/routes
func (c *RouteController) Create(ctx *gin.Context) {
	body, isArray, ok := readBody(ctx)
	if !ok {
		return
	}
	if isArray {
		utils.JSONError(ctx, http.StatusBadRequest, "expected a single route object")
		return
	}
	var in models.Route
	if !decodeJSON(ctx, body, &in) {
		return
	}
	route, err := c.RouteSvc.Create(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err, "create route")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "route": route})
}

// DELETE /api/routes?id=
// With cascade=true the route and its references go in one transaction;
// otherwise the caller is expected to follow up with the cascade endpoint.
func (c *RouteController) Delete(ctx *gin.Context) {
	id, ok := queryID(ctx)
	if !ok {
		return
	}

	if ctx.Query("cascade") == "true" {
		affected, err := c.CascadeSvc.DeleteRouteAndClear(ctx.Request.Context(), id)
		if err != nil {
			respondError(ctx, err, "delete route")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"success": true, "affectedBookings": affected})
		return
	}

	if err := c.RouteSvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "delete route")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
