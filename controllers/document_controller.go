package controllers

import (
	"encoding/json"
	"net/http"

	"kayak-backend/models"
	"kayak-backend/services"
	"kayak-backend/utils"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	DocumentSvc *services.DocumentService
}

func NewDocumentController(svc *services.DocumentService) *DocumentController {
	return &DocumentController{DocumentSvc: svc}
}

// GET /api/document-acceptances
func (c *DocumentController) List(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.DocumentSvc.List(ctx.Request.Context()))
}

// POST /api/document-acceptances/accept
func (c *DocumentController) Accept(ctx *gin.Context) {
	body, isArray, ok := readBody(ctx)
	if !ok {
		return
	}
	if isArray {
		utils.JSONError(ctx, http.StatusBadRequest, "expected a single acceptance object")
		return
	}
	var in models.DocumentAcceptance
	if !decodeJSON(ctx, body, &in) {
		return
	}

	entry, err := c.DocumentSvc.Accept(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err, "record document acceptance")
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "acceptance": entry})
}

// PATCH /api/document-acceptances/attach-reservation
func (c *DocumentController) AttachReservation(ctx *gin.Context) {
	var req struct {
		ReservationID json.RawMessage `json:"reservationId"`
		AcceptedBy    string          `json:"acceptedBy"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid payload")
		return
	}
	reservationID, ok := utils.ParseID(req.ReservationID)
	if !ok {
		utils.JSONError(ctx, http.StatusBadRequest, "missing reservationId")
		return
	}

	linked, err := c.DocumentSvc.AttachReservation(ctx.Request.Context(), reservationID, req.AcceptedBy)
	if err != nil {
		respondError(ctx, err, "attach reservation")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "linked": linked})
}

// DELETE /api/document-acceptances?id=
func (c *DocumentController) Delete(ctx *gin.Context) {
	id, ok := queryID(ctx)
	if !ok {
		return
	}
	if err := c.DocumentSvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "delete document acceptance")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
