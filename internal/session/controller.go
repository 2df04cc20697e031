package session

import (
	"errors"
	"net/http"

	"ticketgate/internal/shared/middleware"
	"ticketgate/internal/shared/utils/response"
	"ticketgate/internal/upstream"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// StartSession opens a fresh seat-hold window.
func (c *Controller) StartSession(ctx *gin.Context) {
	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	identity, _ := middleware.IdentityFrom(ctx)
	resp, err := c.service.Start(ctx.Request.Context(), identity, req)
	if err != nil {
		respondSessionError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking session started", resp, nil)
}

// GetSession returns the current session view with its countdown state.
func (c *Controller) GetSession(ctx *gin.Context) {
	identity, _ := middleware.IdentityFrom(ctx)
	resp, err := c.service.Get(ctx.Request.Context(), identity, ctx.Param("sessionId"))
	if err != nil {
		respondSessionError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session retrieved successfully", resp, nil)
}

// ToggleSeat adds or removes one seat from the selection.
func (c *Controller) ToggleSeat(ctx *gin.Context) {
	var req ToggleSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	identity, _ := middleware.IdentityFrom(ctx)
	resp, err := c.service.ToggleSeat(ctx.Request.Context(), identity, ctx.Param("sessionId"), req)
	if err != nil {
		respondSessionError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Selection updated", resp, nil)
}

// ClearSeats empties the selection set.
func (c *Controller) ClearSeats(ctx *gin.Context) {
	identity, _ := middleware.IdentityFrom(ctx)
	resp, err := c.service.ClearSeats(ctx.Request.Context(), identity, ctx.Param("sessionId"))
	if err != nil {
		respondSessionError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Selection cleared", resp, nil)
}

// Checkout submits the selection upstream in the session's mode.
func (c *Controller) Checkout(ctx *gin.Context) {
	identity, _ := middleware.IdentityFrom(ctx)
	resp, err := c.service.Checkout(ctx.Request.Context(), identity, ctx.Param("sessionId"))
	if err != nil {
		respondSessionError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking submitted successfully", resp, nil)
}

// respondSessionError maps service and upstream failures onto the
// response envelope. Upstream messages are shown verbatim where safe.
func respondSessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Session not found", nil, err.Error())
	case errors.Is(err, ErrUnknownSeat):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Seat not found", nil, err.Error())
	case errors.Is(err, ErrSeatBooked):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Seat is already booked", nil, err.Error())
	case errors.Is(err, ErrSeatNotSelectable):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Section requires contacting the organizer", nil, err.Error())
	case errors.Is(err, ErrEmptySelection):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Select at least one seat before checkout", nil, err.Error())
	case errors.Is(err, ErrNotAccepting), errors.Is(err, ErrSubmitInFlight):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Session cannot accept this action", nil, err.Error())
	case errors.Is(err, upstream.ErrAuthenticationMissing), upstream.IsKind(err, upstream.KindAuth):
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Session expired; please log in again", nil, err.Error())
	case upstream.IsKind(err, upstream.KindValidation):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, err.Error())
	case upstream.IsConflict(err):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Some seats were just taken; the seat map has been refreshed", nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusBadGateway, "Booking service is unavailable", nil, err.Error())
	}
}
