package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"ticketgate/api/routes"
	"ticketgate/internal/bus"
	"ticketgate/internal/ledger"
	"ticketgate/internal/session"
	"ticketgate/internal/shared/config"
	"ticketgate/internal/shared/database"
	"ticketgate/internal/upstream"
	"ticketgate/pkg/cache"
	"ticketgate/pkg/logger"
	"ticketgate/pkg/ratelimit"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// Initialize DB (Postgres ledger + Redis caches)
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	cacheSvc := cache.NewService(db.GetRedisClient())

	// Upstream ticketing backend client; the gateway owns no bookings or
	// payments, every authoritative operation goes through this client.
	upstreamClient := upstream.NewClient(cfg.Upstream, appLogger)

	// Cross-component sync bus: one instance, passed by reference.
	eventBus := bus.New(appLogger)

	// Optional Kafka relay for cancellation events
	if cfg.Kafka.Enabled {
		relay, err := bus.NewRelay(cfg.Kafka, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize Kafka relay", slog.Any("error", err))
			appLogger.Info("Continuing without Kafka relay - cancellations stay gateway-local")
		} else {
			relay.Start(eventBus)
			appLogger.Info("Kafka relay started", slog.String("topic", cfg.Kafka.Topic))
			defer func() {
				if err := relay.Close(); err != nil {
					appLogger.Error("Error closing Kafka relay", slog.Any("error", err))
				}
			}()
		}
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Cancelled-ticket ledger with lazy pruning
	ledgerRepo := ledger.NewRepository(db.GetPostgreSQL())
	ledgerSvc := ledger.NewService(ledgerRepo, cfg.Ledger.Retention, appLogger)
	ledger.StartPruner(workerCtx, ledgerSvc, cfg.Ledger.PruneInterval, appLogger)

	// In-memory session store with janitor
	sessionStore := session.NewStore()
	session.StartJanitor(workerCtx, sessionStore, cfg.Session.JanitorInterval, cfg.Session.Duration, appLogger)

	// Rate limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PublicRequests:  cfg.RateLimit.PublicRequests,
			SessionRequests: cfg.RateLimit.SessionRequests,
			TicketRequests:  cfg.RateLimit.TicketRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	router := setupRouter(cfg, db, cacheSvc, upstreamClient, ledgerSvc, eventBus, sessionStore, rateLimiter)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Gateway running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("upstream", cfg.Upstream.BaseURL),
			slog.String("version", cfg.APIVersion),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("kafka_relay", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, cacheSvc cache.Service, upstreamClient upstream.Client, ledgerSvc ledger.Service, eventBus *bus.Bus, sessionStore *session.Store, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	appRouter := routes.NewRouter(cfg, db, cacheSvc, upstreamClient, ledgerSvc, eventBus, sessionStore, appLogger)
	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
