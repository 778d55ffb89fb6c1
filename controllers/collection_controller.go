package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"kayak-backend/services"

	"github.com/gin-gonic/gin"
)

// CollectionController serves one schema-less collection; routes.go mounts one
// per table.
type CollectionController struct {
	Svc *services.CollectionService
}

func NewCollectionController(svc *services.CollectionService) *CollectionController {
	return &CollectionController{Svc: svc}
}

func (c *CollectionController) List(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.Svc.List(ctx.Request.Context()))
}

func (c *CollectionController) Create(ctx *gin.Context) {
	body, isArray, ok := readBody(ctx)
	if !ok {
		return
	}

	if isArray {
		var items []map[string]json.RawMessage
		if !decodeJSON(ctx, body, &items) {
			return
		}
		n, err := c.Svc.OverwriteAll(ctx.Request.Context(), items)
		if err != nil {
			respondError(ctx, err, "save "+c.Svc.Name())
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("saved %d items", n)})
		return
	}

	var fields map[string]json.RawMessage
	if !decodeJSON(ctx, body, &fields) {
		return
	}
	item, err := c.Svc.Create(ctx.Request.Context(), fields)
	if err != nil {
		respondError(ctx, err, "create "+c.Svc.Name())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "item": item})
}

func (c *CollectionController) Update(ctx *gin.Context) {
	body, _, ok := readBody(ctx)
	if !ok {
		return
	}
	var fields map[string]json.RawMessage
	if !decodeJSON(ctx, body, &fields) {
		return
	}
	id, ok := bodyID(ctx, fields)
	if !ok {
		return
	}
	item, err := c.Svc.Update(ctx.Request.Context(), id, fields)
	if err != nil {
		respondError(ctx, err, "update "+c.Svc.Name())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "item": item})
}

func (c *CollectionController) Delete(ctx *gin.Context) {
	id, ok := queryID(ctx)
	if !ok {
		return
	}
	if err := c.Svc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "delete from "+c.Svc.Name())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
