package tickets

import (
	"ticketgate/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTicketRoutes(rg *gin.RouterGroup, controller *Controller) {
	tickets := rg.Group("/tickets")
	tickets.Use(middleware.RequireIdentity())
	{
		tickets.GET("", controller.GetTickets)           // GET /api/v1/tickets
		tickets.POST("/cancel", controller.CancelTicket) // POST /api/v1/tickets/cancel
		tickets.GET("/stream", controller.StreamEvents)  // GET /api/v1/tickets/stream
	}
}
