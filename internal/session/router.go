package session

import (
	"ticketgate/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSessionRoutes(rg *gin.RouterGroup, controller *Controller) {
	sessions := rg.Group("/sessions")
	sessions.Use(middleware.RequireIdentity())
	{
		sessions.POST("", controller.StartSession)                  // POST /api/v1/sessions
		sessions.GET("/:sessionId", controller.GetSession)          // GET /api/v1/sessions/:sessionId
		sessions.POST("/:sessionId/seats", controller.ToggleSeat)   // POST /api/v1/sessions/:sessionId/seats
		sessions.DELETE("/:sessionId/seats", controller.ClearSeats) // DELETE /api/v1/sessions/:sessionId/seats
		sessions.POST("/:sessionId/checkout", controller.Checkout)  // POST /api/v1/sessions/:sessionId/checkout
	}
}
