// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"ticketgate/internal/bus"
	"ticketgate/internal/ledger"
	"ticketgate/internal/seatmap"
	"ticketgate/internal/session"
	"ticketgate/internal/shared/config"
	"ticketgate/internal/shared/database"
	"ticketgate/internal/shared/middleware"
	"ticketgate/internal/tickets"
	"ticketgate/internal/upstream"
	"ticketgate/pkg/cache"
	"ticketgate/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config         *config.Config
	db             *database.DB
	cacheSvc       cache.Service
	upstreamClient upstream.Client
	ledgerSvc      ledger.Service
	eventBus       *bus.Bus
	sessionStore   *session.Store
	log            *logger.Logger
}

// NewRouter creates a new router instance. Shared services (cache, bus,
// upstream client, ledger, session store) are built once in main and
// injected here so background workers see the same instances.
func NewRouter(cfg *config.Config, db *database.DB, cacheSvc cache.Service, upstreamClient upstream.Client, ledgerSvc ledger.Service, eventBus *bus.Bus, sessionStore *session.Store, log *logger.Logger) *Router {
	return &Router{
		config:         cfg,
		db:             db,
		cacheSvc:       cacheSvc,
		upstreamClient: upstreamClient,
		ledgerSvc:      ledgerSvc,
		eventBus:       eventBus,
		sessionStore:   sessionStore,
		log:            log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())

	// Every API request resolves its identity once; route groups decide
	// whether a missing identity is fatal.
	api.Use(middleware.ResolveIdentity(r.config, r.cacheSvc, r.log))
	{
		seatmapSvc := r.setupSeatMapRoutes(api)
		r.setupSessionRoutes(api, seatmapSvc)
		r.setupTicketRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketgate",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "ticketgate",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupSeatMapRoutes configures the seat map surface and returns the
// service so the session routes can share the same snapshot cache.
func (r *Router) setupSeatMapRoutes(rg *gin.RouterGroup) seatmap.Service {
	seatmapSvc := seatmap.NewService(seatmap.DefaultSections(), r.upstreamClient, r.cacheSvc, r.config)
	seatmapController := seatmap.NewController(seatmapSvc)

	seatmap.SetupSeatMapRoutes(rg, seatmapController)
	return seatmapSvc
}

// setupSessionRoutes configures the booking-session surface
func (r *Router) setupSessionRoutes(rg *gin.RouterGroup, seatmapSvc seatmap.Service) {
	sessionSvc := session.NewService(r.sessionStore, seatmapSvc, r.upstreamClient, r.config, r.log)
	sessionController := session.NewController(sessionSvc)

	session.SetupSessionRoutes(rg, sessionController)
}

// setupTicketRoutes configures the ticket listing / cancellation surface
func (r *Router) setupTicketRoutes(rg *gin.RouterGroup) {
	ticketSvc := tickets.NewService(r.upstreamClient, r.ledgerSvc, r.eventBus, r.cacheSvc, r.config, r.log)
	ticketController := tickets.NewController(ticketSvc, r.eventBus)

	tickets.SetupTicketRoutes(rg, ticketController)
}
