package seatmap

import (
	"ticketgate/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatMapRoutes(rg *gin.RouterGroup, controller *Controller) {
	seatmap := rg.Group("/seatmap")
	{
		// Static venue configuration needs no credential
		seatmap.GET("/sections", controller.GetSections) // GET /api/v1/seatmap/sections

		// The booked overlay is fetched upstream and needs a bearer
		authed := seatmap.Group("")
		authed.Use(middleware.RequireIdentity())
		{
			authed.GET("/:eventId", controller.GetSeatMap)                             // GET /api/v1/seatmap/:eventId
			authed.GET("/:eventId/contact/:sectionId", controller.GetContactHandoff)   // GET /api/v1/seatmap/:eventId/contact/:sectionId
		}
	}
}
