package tickets

import (
	"errors"
	"io"
	"net/http"

	"ticketgate/internal/bus"
	"ticketgate/internal/shared/middleware"
	"ticketgate/internal/shared/utils/response"
	"ticketgate/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	eventBus  *bus.Bus
	validator *validator.Validate
}

func NewController(service Service, eventBus *bus.Bus) *Controller {
	return &Controller{
		service:   service,
		eventBus:  eventBus,
		validator: validator.New(),
	}
}

// GetTickets returns the buyer's active tickets, newest first.
func (c *Controller) GetTickets(ctx *gin.Context) {
	identity, _ := middleware.IdentityFrom(ctx)
	tickets, err := c.service.List(ctx.Request.Context(), identity)
	if err != nil {
		respondTicketError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Tickets retrieved successfully", ListResponse{
		Tickets: tickets,
		Total:   len(tickets),
	}, nil)
}

// CancelTicket cancels one ticket's seat. "Already cancelled" upstream is
// reported as a success.
func (c *Controller) CancelTicket(ctx *gin.Context) {
	var req CancelTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	identity, _ := middleware.IdentityFrom(ctx)
	result, err := c.service.Cancel(ctx.Request.Context(), identity, req)
	if err != nil {
		respondTicketError(ctx, err)
		return
	}

	message := "Ticket cancelled successfully"
	if result.AlreadyCancelled {
		message = "Ticket was already cancelled"
	}
	response.RespondJSON(ctx, "success", http.StatusOK, message, result, nil)
}

// StreamEvents pushes bus notifications to the client as server-sent
// events so open tabs stay in sync without polling.
func (c *Controller) StreamEvents(ctx *gin.Context) {
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	events := make(chan bus.Event, 16)
	unsubscribe := c.eventBus.Subscribe(func(event bus.Event) {
		select {
		case events <- event:
		default:
			// Slow consumer; drop rather than block the publisher.
		}
	})
	defer unsubscribe()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			ctx.SSEvent(string(event.Type), event)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

func respondTicketError(ctx *gin.Context, err error) {
	var unresolved *OrderIDUnresolvedError
	var incomplete *SeatIdentityIncompleteError
	switch {
	case errors.As(err, &unresolved):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, unresolved.Error(), nil, err.Error())
	case errors.As(err, &incomplete):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, incomplete.Error(), nil, err.Error())
	case errors.Is(err, upstream.ErrAuthenticationMissing), upstream.IsKind(err, upstream.KindAuth):
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Session expired; please log in again", nil, err.Error())
	case upstream.IsKind(err, upstream.KindValidation):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, err.Error())
	case upstream.IsConflict(err):
		response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusBadGateway, err.Error(), nil, err.Error())
	}
}
