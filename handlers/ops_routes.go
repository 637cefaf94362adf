package handlers

import (
	"item-claim-system/metrics"
	"item-claim-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func SetupOpsRoutes(app *fiber.App, claimService *services.ClaimService) {
	app.Get("/healthz", claimService.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}
