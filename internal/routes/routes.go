// Package routes defines the API routing configuration.
// It wires repositories, services, and handlers in dependency order and
// registers all HTTP routes with their middleware.
package routes

import (
	"time"

	"upiroute/internal/config"
	"upiroute/internal/handlers"
	"upiroute/internal/middleware"
	"upiroute/internal/models"
	"upiroute/internal/repositories"
	"upiroute/internal/services/audit"
	"upiroute/internal/services/geo"
	"upiroute/internal/services/health"
	"upiroute/internal/services/payout"
	"upiroute/internal/services/routing"
	"upiroute/internal/services/velocity"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It groups routes by caller role and applies the auth middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize repositories
	channelRepo := repositories.NewChannelRepository(db)
	requestRepo := repositories.NewPaymentRequestRepository(db)
	circuitRepo := repositories.NewCircuitRepository(db)
	affinityRepo := repositories.NewAffinityRepository(db)
	branchRepo := repositories.NewBranchRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	obligationRepo := repositories.NewObligationRepository(db)
	payoutRepo := repositories.NewPayoutRequestRepository(db)

	weights, err := config.LoadScoringWeights()
	if err != nil {
		panic("invalid scoring configuration: " + err.Error())
	}

	// Initialize services in dependency order
	registryTTL := config.GetDurationEnv("CIRCUIT_SNAPSHOT_TTL", 30*time.Second)
	registry := health.NewRegistry(circuitRepo, registryTTL)

	guard := velocity.NewGuard(repositories.CacheService.Client(), velocity.DefaultConfig())

	auditService := audit.NewService(auditRepo)
	affinityProvider := routing.NewCachedAffinity(affinityRepo, repositories.CacheService)
	originTable := config.GetEnv("GEO_ORIGIN_TABLE", "")
	geoResolver := geo.NewResolver(branchRepo, repositories.CacheService, originTable)

	selector := routing.NewSelector(weights.SelectorExponent, weights.RecencyPenalty, weights.RecencyListSize)
	routingService := routing.NewService(
		channelRepo,
		requestRepo,
		registry,
		guard,
		affinityProvider,
		auditService,
		geoResolver,
		selector,
		weights,
	)

	payoutService := payout.NewService(obligationRepo, payoutRepo, auditService)

	// Initialize handlers
	routingHandler := handlers.NewRoutingHandler(routingService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	adminHandler := handlers.NewAdminHandler(payoutService, registry)

	// Public endpoints
	app.Get("/health", handlers.HealthCheck)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "UPI collection router",
			"version": "1.0.0",
		})
	})

	// Protected routes with auth middleware
	api := app.Group("/api", middleware.Auth())

	collections := api.Group("/collections", middleware.RequireRole(models.RoleMerchant, models.RoleAdmin))
	collections.Post("/route", routingHandler.RouteCollection)
	collections.Post("/:id/switch", routingHandler.SwitchChannel)
	collections.Post("/:id/outcome", routingHandler.RecordOutcome)

	payouts := api.Group("/payouts", middleware.RequireRole(models.RoleCustodian, models.RoleAdmin))
	payouts.Post("/requests", payoutHandler.RequestPayout)
	payouts.Get("/:id", payoutHandler.GetPayout)
	payouts.Post("/:id/confirm", payoutHandler.ConfirmPayout)
	payouts.Post("/:id/cancel", payoutHandler.CancelPayoutRequest)
	payouts.Post("/obligations/:id/cancel", payoutHandler.CancelObligation)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin), middleware.RequireAdminKey())
	admin.Post("/obligations", adminHandler.CreateObligation)
	admin.Delete("/obligations/:id", adminHandler.RemoveObligation)
	admin.Post("/obligations/:id/reassign", adminHandler.ReassignObligation)
	admin.Post("/payouts/:id/verify", adminHandler.VerifyPayout)
	admin.Get("/circuits", adminHandler.GetCircuits)
}
