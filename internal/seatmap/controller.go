package seatmap

import (
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

// GetSections returns the static venue configuration.
func (c *Controller) GetSections(ctx *gin.Context) {
	response.RespondJSON(ctx, "success", http.StatusOK, "Sections retrieved successfully", c.service.Sections(), nil)
}

// GetSeatMap returns the full seat map for an event with the advisory
// booked overlay applied.
func (c *Controller) GetSeatMap(ctx *gin.Context) {
	eventID := ctx.Param("eventId")
	if eventID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Event ID is required", nil, "missing event ID")
		return
	}

	identity, _ := middleware.IdentityFrom(ctx)
	view, err := c.service.View(ctx.Request.Context(), identity.Token, eventID)
	if err != nil {
		if upstream.IsKind(err, upstream.KindAuth) {
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Session expired; please log in again", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadGateway, "Failed to load seat map", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat map retrieved successfully", view, nil)
}

// GetContactHandoff resolves the organizer-contact metadata for a
// requires-contact section.
func (c *Controller) GetContactHandoff(ctx *gin.Context) {
	eventID := ctx.Param("eventId")
	sectionID := ctx.Param("sectionId")
	if eventID == "" || sectionID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Event ID and section ID are required", nil, nil)
		return
	}

	handoff, err := c.service.ContactHandoff(eventID, sectionID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Section is not available for organizer contact", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Contact handoff prepared", handoff, nil)
}
