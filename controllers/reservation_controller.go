package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"kayak-backend/models"
	"kayak-backend/services"
	"kayak-backend/utils"

	"github.com/gin-gonic/gin"
)

type ReservationController struct {
	ReservationSvc *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{ReservationSvc: svc}
}

// GET /api/reservations
func (c *ReservationController) List(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.ReservationSvc.List(ctx.Request.Context()))
}

// GET /api/reservations/:id
func (c *ReservationController) Get(ctx *gin.Context) {
	id, ok := utils.ParseIDString(ctx.Param("id"))
	if !ok {
		utils.JSONError(ctx, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	r, err := c.ReservationSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "load reservation")
		return
	}
	ctx.JSON(http.StatusOK, r)
}

// GET /api/reservations/options
func (c *ReservationController) Options(ctx *gin.Context) {
	utils.JSONSuccess(ctx, http.StatusOK, gin.H{
		"statuses": []models.ReservationStatus{
			models.StatusUnconfirmed, models.StatusConfirmed, models.StatusTripStarted, models.StatusTripFinished,
		},
		"paymentStatuses": []models.PaymentStatus{
			models.PaymentUnpaid, models.PaymentPaid, models.PaymentInvoiceUnpaid, models.PaymentInvoicePaid,
		},
		"timeSlots": models.TimeSlots,
	})
}

// POST /api/reservations
// An array replaces the whole list, an object creates one reservation.
func (c *ReservationController) Create(ctx *gin.Context) {
	body, isArray, ok := readBody(ctx)
	if !ok {
		return
	}

	if isArray {
		var list []models.Reservation
		if !decodeJSON(ctx, body, &list) {
			return
		}
		n, err := c.ReservationSvc.OverwriteAll(ctx.Request.Context(), list)
		if err != nil {
			respondError(ctx, err, "save reservations")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("Zapisano %d rezerwacji", n)})
		return
	}

	var in models.Reservation
	if !decodeJSON(ctx, body, &in) {
		return
	}
	booking, err := c.ReservationSvc.Create(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err, "create reservation")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// PUT /api/reservations
func (c *ReservationController) Update(ctx *gin.Context) {
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

	booking, err := c.ReservationSvc.Update(ctx.Request.Context(), id, fields)
	if err != nil {
		respondError(ctx, err, "update reservation")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// PATCH /api/reservations/:id/status
func (c *ReservationController) ChangeStatus(ctx *gin.Context) {
	id, ok := utils.ParseIDString(ctx.Param("id"))
	if !ok {
		utils.JSONError(ctx, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	var req struct {
		Status        models.ReservationStatus `json:"status"`
		PaymentStatus models.PaymentStatus     `json:"paymentStatus"`
		Notes         string                   `json:"notes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid payload")
		return
	}

	booking, changed, err := c.ReservationSvc.ChangeStatus(ctx.Request.Context(), id, req.Status, req.PaymentStatus, req.Notes)
	if err != nil {
		respondError(ctx, err, "change reservation status")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "changed": changed, "booking": booking})
}

// DELETE /api/reservations?id=
func (c *ReservationController) Delete(ctx *gin.Context) {
	id, ok := queryID(ctx)
	if !ok {
		return
	}
	if err := c.ReservationSvc.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "delete reservation")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
